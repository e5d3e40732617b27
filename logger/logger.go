// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names shared across subsystems so log lines stay greppable.
const (
	MissionField   = "mission"
	ActionField    = "action"
	IterationField = "iteration"
	ProviderField  = "provider"
	TopicField     = "topic"
)

// Setup parses the level, sets it globally, and switches the global logger
// to a human-readable console writer when pretty is true.
func Setup(level string, pretty bool) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(l)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// New returns a logger tagged with the owning subsystem name. Components keep
// the returned logger as a field rather than reaching for the global.
func New(subsystem string) zerolog.Logger {
	return log.With().Str("subsystem", subsystem).Logger()
}
