// Package log builds slog loggers that mask credentials.
//
// identscan handles a Have I Been Pwned API key, a GitHub token and
// optionally proxy credentials. SecureHandler keeps them out of log output
// even at debug level:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("breach lookup", "hibp_api_key", key) // hibp_api_key=***REDACTED***
//
// The handler wraps any slog.Handler; text and JSON constructors are provided.
package log
