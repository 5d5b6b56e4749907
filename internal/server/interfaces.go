package server

import "context"

// Server defines the common lifecycle contract for transport servers managed
// by this package.
//
// Implementations are expected to block in [RunServer] until shutdown is
// requested and to release resources in [Shutdown].
type Server interface {
	// RunServer starts serving requests and blocks until a stop signal
	// arrives and the servers have shut down.
	RunServer()

	// Run is [RunServer] stopped by ctx instead of a signal. It returns the
	// first error of a transport or a worker.
	Run(ctx context.Context) error

	// Shutdown gracefully stops the server and frees associated resources.
	Shutdown()
}

// BackgroundRunner is run next to the transports and stopped with them.
type BackgroundRunner interface {
	Run(ctx context.Context) error
}
