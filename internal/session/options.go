package session

import "log/slog"

type config struct {
	logger *slog.Logger
	clock  Clock
	device string
}

// Option configures a Recorder or Replayer.
type Option func(*config)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock sets the sequence clock. Default: a fresh LogicalClock.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithDevice names the device node the session belongs to. It is attached
// to every log line.
func WithDevice(path string) Option {
	return func(c *config) {
		c.device = path
	}
}

func newConfig(opts []Option) config {
	c := config{}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.clock == nil {
		c.clock = NewLogicalClock()
	}
	if c.device != "" {
		c.logger = c.logger.With("device", c.device)
	}
	return c
}
