package logging

import (
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunSummary collects what a command was asked to do and how it went,
// then emits a single structured event when the command finishes.
type RunSummary struct {
	id      string
	command string
	message string
	start   time.Time

	config   map[string]string
	features map[string]bool
	counts   map[string]int
}

// NewRunSummary starts timing the named command (e.g. "inspect", "scan").
func NewRunSummary(command string) *RunSummary {
	return &RunSummary{
		id:       uuid.NewString(),
		command:  command,
		message:  "Command complete",
		start:    time.Now(),
		config:   make(map[string]string),
		features: make(map[string]bool),
		counts:   make(map[string]int),
	}
}

// ID identifies this run in logs and metrics.
func (s *RunSummary) ID() string {
	return s.id
}

// Message replaces the default "Command complete" log message.
func (s *RunSummary) Message(msg string) *RunSummary {
	s.message = msg
	return s
}

// Config registers a configuration key-value pair.
func (s *RunSummary) Config(key, value string) *RunSummary {
	s.config[key] = value
	return s
}

// Feature registers a boolean flag (e.g. "json", "emf").
func (s *RunSummary) Feature(name string, enabled bool) *RunSummary {
	s.features[name] = enabled
	return s
}

// Add increments a named counter.
func (s *RunSummary) Add(name string, n int) *RunSummary {
	s.counts[name] += n
	return s
}

// Count returns the current value of a counter.
func (s *RunSummary) Count(name string) int {
	return s.counts[name]
}

// Log emits the summary at info level on the global logger.
func (s *RunSummary) Log() {
	s.LogTo(log.Logger)
}

// LogTo emits the summary on logger.
func (s *RunSummary) LogTo(logger zerolog.Logger) {
	evt := logger.Info().
		Str("runId", s.id).
		Str("command", s.command).
		Str("goVersion", runtime.Version()).
		Dur("elapsed", time.Since(s.start))

	if len(s.config) > 0 {
		d := zerolog.Dict()
		for k, v := range s.config {
			d = d.Str(k, v)
		}
		evt = evt.Dict("config", d)
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}
	if len(s.counts) > 0 {
		d := zerolog.Dict()
		for k, v := range s.counts {
			d = d.Int(k, v)
		}
		evt = evt.Dict("counts", d)
	}

	evt.Msg(s.message)
}
