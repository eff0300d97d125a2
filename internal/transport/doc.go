// Package transport builds the outbound HTTP client shared by all probes.
//
// The client injects the configured User-Agent and headers into every
// request, optionally routes through a SOCKS5 proxy, and can route through
// an embedded Tor daemon started with tornago. CheckConnection verifies a
// proxy with a SOCKS5 handshake before a lookup starts, so a dead proxy is
// reported once instead of as a network failure from every probe.
package transport
