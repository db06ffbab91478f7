// Package logging provides structured logging utilities for inboxtally.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (sender addresses are hashed or reduced to their domain)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "gmail")
//	logger.Debug("gmail api call",
//	    logging.Status("success"),
//	    logging.Duration(elapsed))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("classifying message",
//	    logging.MessageID(msg.ID),
//	    logging.SenderDomain(msg.Sender),
//	    logging.SenderHash(msg.Sender))
//
// # Security Considerations
//
//   - Sender addresses are hashed to prevent PII leakage while allowing correlation
//   - OAuth tokens are never logged directly, only through SanitizeToken
package logging
