// Package logging provides structured logging for projectd built on Zap.
//
// The Logger wraps *zap.Logger with context-aware methods so request-scoped
// fields (request ID, operation label) attached via WithRequestID and
// WithOperation are emitted on every log line without threading fields
// through call sites manually.
package logging
