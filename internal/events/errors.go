package events

import "errors"

var (
	// ErrBusClosed is returned by Publish and Consume after Close.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrBusFull is returned by the in-process bus when its buffer is full.
	ErrBusFull = errors.New("event bus buffer is full")

	// ErrDecodingEvent is returned for a message that is not a booking event.
	ErrDecodingEvent = errors.New("failed to decode event")
)
