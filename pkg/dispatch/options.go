package dispatch

import "time"

// DefaultTimeout bounds a pipeline run when neither the registration nor the
// registry sets a deadline.
const DefaultTimeout = 30 * time.Minute

// Options holds per-registration configuration.
type Options struct {
	Timeout     time.Duration
	Description string
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// Timeout sets the deadline for each run of the pipeline. Zero falls back to
// the registry default.
func Timeout(d time.Duration) Option {
	return optionFunc(func(o *Options) {
		if d > 0 {
			o.Timeout = d
		}
	})
}

// Description attaches a human readable description, used when seeding tasks.
func Description(s string) Option {
	return optionFunc(func(o *Options) {
		o.Description = s
	})
}
