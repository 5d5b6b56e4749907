// Package workers runs the background processes of the API server: the
// notification pool, the booking lifecycle sweep and the storage health check.
//
// Every worker blocks in Run until its context is cancelled. [Workers] runs
// them together and stops all of them when one fails.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Run blocks until ctx is cancelled and returns nil in that case. Any other
// returned error stops the sibling workers.
type Worker interface {
	Run(ctx context.Context) error
}

// StatusReporter receives the result of every storage health check. The gRPC health
// handler implements it.
type StatusReporter interface {
	SetServing(serving bool)
}
