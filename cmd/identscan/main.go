// Package main provides the entry point for the identscan CLI.
//
// identscan looks up a username, an email address or an image across many
// public sources and aggregates what it finds into one report.
//
// Usage:
//
//	identscan username <name>
//	identscan email <address>
//	identscan image <path>
//	identscan batch --kind username <name>...
//
// See --help for all available options.
package main

func main() {
	Execute()
}
