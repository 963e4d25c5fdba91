package ingest

import "sync/atomic"

// CancelFlag is a shared stop signal. Setting it from one goroutine is
// always observed by the next poll in another; there is no payload and no
// reset-to-running semantics beyond Reset before a new batch.
type CancelFlag struct {
	canceled atomic.Bool
}

// NewCancelFlag returns a flag in the running state.
func NewCancelFlag() *CancelFlag {
	return &CancelFlag{}
}

// Cancel requests a stop. Idempotent.
func (f *CancelFlag) Cancel() {
	f.canceled.Store(true)
}

// Canceled reports whether a stop has been requested.
func (f *CancelFlag) Canceled() bool {
	return f.canceled.Load()
}

// Reset arms the flag for a new batch.
func (f *CancelFlag) Reset() {
	f.canceled.Store(false)
}
