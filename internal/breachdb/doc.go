// Package breachdb stores a local corpus of known data breaches and the
// email addresses exposed in them. It backs the offline breach probe, which
// answers without an API key and keeps working when the remote breach
// service is unavailable.
//
// The corpus is a SQLite database (modernc.org/sqlite, no cgo). Records are
// loaded with Import from a JSON document whose breach entries use the Have
// I Been Pwned field names.
package breachdb
