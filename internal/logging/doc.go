// Package logging provides structured logging with per-module log levels.
//
// Output goes to stderr by default so that command output on stdout stays
// machine-readable, and additionally to the systemd journal when journald is
// reachable.
//
// Initialize once at startup, and again whenever the configuration reloads:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"hal":     "debug",
//			"pinning": "warn",
//		},
//	})
//
// Then fetch a logger per module:
//
//	logger := logging.GetLogger("pinning")
//	logger.Info("Profile applied", "devices", n)
//
// Module loggers carry a module attribute and their own level, which
// SetModuleLevel can change at runtime.
//
// Journal entries use the identifier "audiohal":
//
//	journalctl -t audiohal -f
//	journalctl -t audiohal MODULE=pinning
//
// Example TOML configuration; keys other than level, format and output are
// module names:
//
//	[logging]
//	level = "info"
//	format = "text"
//	output = "stderr"
//	hal = "debug"
package logging
