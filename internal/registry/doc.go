// Package registry holds the probes available for each subject kind.
//
// A Registry groups probes into ordered fallback tiers plus a set of signal
// probes per kind. It is built once at startup, either from explicit probe
// values with New or from probe definitions with Build, and is read-only
// afterwards: every accessor returns a copy, so concurrent lookups can
// share one Registry.
package registry
