package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultSignalGrace is how long Settle waits for an interrupt to follow an input error.
const DefaultSignalGrace = 100 * time.Millisecond

// SignalManager turns SIGINT and SIGTERM into cancellation of a terminal session.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Grace bounds the wait in Settle.
	Grace time.Duration
}

// NewSignalManager starts listening for signals. Its context is also cancelled with parent.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{Grace: DefaultSignalGrace}
	sm.ctx, sm.cancel = signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return sm
}

// Context is cancelled on the first signal, on Stop or with the parent.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the session was cancelled.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}

// Stop releases the signal listener and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// Settle is called after an input error. Some terminals (PowerShell in particular)
// deliver Ctrl+C as EOF slightly before the signal itself, so it waits up to Grace
// and reports whether the error was really an interrupt.
func (sm *SignalManager) Settle() bool {
	if sm.Interrupted() {
		return true
	}
	select {
	case <-sm.ctx.Done():
		return true
	case <-time.After(sm.Grace):
		return false
	}
}
