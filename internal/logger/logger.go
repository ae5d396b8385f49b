// Package logger configures the process-wide zerolog logger.  Components
// derive their own logger via For() so every line carries a component field.
package logger

import (
    "os"
    "strings"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

// Init sets the global log level from LOG_LEVEL (default "info") and
// switches to the console writer when LOG_PRETTY is truthy.  Call once
// from main before any component logs.
func Init() {
    level := strings.ToLower(os.Getenv("LOG_LEVEL"))
    switch level {
    case "debug":
        zerolog.SetGlobalLevel(zerolog.DebugLevel)
    case "warn":
        zerolog.SetGlobalLevel(zerolog.WarnLevel)
    case "error":
        zerolog.SetGlobalLevel(zerolog.ErrorLevel)
    default:
        zerolog.SetGlobalLevel(zerolog.InfoLevel)
    }
    if p := os.Getenv("LOG_PRETTY"); p == "1" || strings.EqualFold(p, "true") {
        log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
    }
}

// For returns a child logger tagged with the given component name.
func For(component string) zerolog.Logger {
    return log.With().Str("component", component).Logger()
}
