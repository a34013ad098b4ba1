package testutil

import "go.uber.org/zap"

// NopLogger returns a logger that discards everything. Handler and store
// tests pass it wherever a *zap.Logger is required.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}
