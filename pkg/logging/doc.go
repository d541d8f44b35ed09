// Package logging provides the structured logger shared by the testagent CLI
// and its client packages.
//
// It wraps log/slog with a small facade keyed by subsystem so every log line
// carries the component that produced it:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Debug("Gateway", "GET %s -> %d", path, status)
//	logging.Warn("History", "Domain %s unavailable", domain)
//	logging.Error("Session", err, "Failed to persist %s", key)
//
// Two handlers are available: human readable text (default) and JSON, chosen
// with Init. Levels below the configured threshold are dropped before any
// formatting work happens.
//
// Tokens and other credentials must never be passed to these functions.
package logging
