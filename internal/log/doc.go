// Package log provides logging with automatic credential scrubbing,
// built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic masking of sensitive values (cookies, tokens, secrets)
//   - Scrubbing of credentials embedded in logged URLs
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Scrubbing
//
// The ScrubHandler automatically masks sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (JWTs, bearer tokens, keys)
//   - Session identifiers and authentication tokens
//   - URL userinfo passwords and credential-bearing query parameters
//
// A crawl touches arbitrary pages and its logs are full of URLs, so URL
// scrubbing keeps the page identity visible while removing anything that
// would let a reader of the logs replay an authenticated request.
//
// # Usage
//
//	// Create a scrubbed logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("page fetched",
//	    "cookie", "session=abc123",  // Masked
//	    "url", "http://example.com/page",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
