// Package sink delivers run outputs: the repository name, each metric result,
// the final verdict, or the failure that stopped the run.
package sink

import (
	"errors"
	"sync"
)

// Sink receives named outputs as they become known. SetOutput may be called
// from several goroutines at once.
type Sink interface {
	SetOutput(key string, value any) error
	// Fail marks the run as failed. No final_pass follows a failure.
	Fail(err error) error
	Close() error
}

// Multi fans every call out to all of its sinks.
type Multi struct {
	sinks []Sink
}

// NewMulti returns a Sink writing to every non-nil sink given.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) SetOutput(key string, value any) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.SetOutput(key, value))
	}
	return errors.Join(errs...)
}

func (m *Multi) Fail(err error) error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Fail(err))
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// outputs is a concurrency-safe record of everything a sink was given.
type outputs struct {
	mu     sync.Mutex
	values map[string]any
	err    error
}

func (o *outputs) set(key string, value any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.values == nil {
		o.values = make(map[string]any)
	}
	o.values[key] = value
}

func (o *outputs) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}
