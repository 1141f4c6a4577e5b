package service

import (
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/logger"
)

// Option configures a service instance
type Option func(*options)

type options struct {
	logger         logger.Logger
	clock          func() time.Time
	windowDays     int
	inactivityDays int
}

func newOptions(opts []Option) options {
	o := options{
		windowDays:     models.DefaultWindowDays,
		inactivityDays: models.DefaultInactivityDays,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets a custom logger instead of the global one
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithPerformanceDefaults sets the default rolling window and inactivity threshold in days
func WithPerformanceDefaults(windowDays, inactivityDays int) Option {
	return func(o *options) {
		if windowDays > 0 {
			o.windowDays = windowDays
		}
		if inactivityDays > 0 {
			o.inactivityDays = inactivityDays
		}
	}
}

// getLogger returns the custom logger if set, otherwise returns the global logger
func (o *options) getLogger() logger.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logger.Log
}

func (o *options) now() time.Time {
	if o.clock != nil {
		return o.clock().UTC()
	}
	return time.Now().UTC()
}
