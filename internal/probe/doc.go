// Package probe defines the contract between the lookup engine and the
// individual data sources it queries, along with the built-in sources.
//
// A Probe answers one question about one Subject and reports exactly one
// Outcome:
//   - Found: the subject was positively observed (one or more Hits, or Signals)
//   - NotFound: the source answered and the subject is absent
//   - Uncertain: the source answered ambiguously (raw status kept)
//   - Failure: the probe could not produce an answer (timeout, network,
//     missing tool, malformed response)
//
// Probes never panic and never return Go errors across this boundary:
// ordinary failures are values. They honor the context deadline given by the
// orchestrator and hold no state between invocations.
//
// # Built-in probes
//
//   - HTTPProbe: status-code rules against a URL template, with optional
//     OpenGraph profile extraction
//   - ProcessProbe: runs an external CLI (maigret, holehe) and parses its output
//   - GitHubProbe: GitHub users API
//   - BreachProbe: Have I Been Pwned v3 breached-account API (signal)
//   - CorpusProbe: local breach corpus lookups (signal)
//   - EmailInfoProbe: provider, disposable-domain and MX checks (signal)
//   - ReverseImageProbe: multipart upload to a reverse image search engine
//   - EXIFProbe: local EXIF extraction and SHA3 fingerprint (signal)
package probe
