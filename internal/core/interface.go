package core

import (
	"context"
	"errors"
)

// ErrServiceClosed is returned by operations on a service after Shutdown.
var ErrServiceClosed = errors.New("poll interval service is closed")

// PollIntervalService owns the mail poll interval. The TUI only ever reads it
// through Subscribe and changes it through SetPollInterval; it can run against
// a local embedded backend or a remote daemon.
type PollIntervalService interface {
	// PollInterval returns the last known interval in seconds.
	PollInterval() uint64

	// Subscribe returns a stream that first yields the current value and then
	// every change. Slow readers only see the latest value. The returned
	// function ends the subscription and closes the channel.
	Subscribe(ctx context.Context) (<-chan uint64, func(), error)

	// SetPollInterval changes the interval. Values outside the catalog are
	// rejected with interval.ErrNotInCatalog.
	SetPollInterval(ctx context.Context, seconds uint64) error

	// Shutdown closes all subscriptions.
	Shutdown() error
}

// PollIntervalStatus is the JSON body exchanged with the daemon.
type PollIntervalStatus struct {
	Seconds uint64 `json:"seconds"`
}
