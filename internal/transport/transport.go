// Package transport binds the gateway byte stream to concrete devices.
//
// A stream is an io.ReadWriteCloser: each Read returns the next chunk as it
// arrived, io.EOF marks the end of the stream, and Close unblocks a pending
// Read.
package transport

import (
	"context"
	"io"
)

// Opener opens a duplex stream to the gateway.
type Opener interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	// Describe names the endpoint for logs and the session state.
	Describe() string
}
