package radio

import (
	"context"
	"sync/atomic"
	"time"
)

// WaitState is the value of the completion signal shared between the
// blocking protocols and the interrupt source.
type WaitState int32

// Completion signal values.
const (
	NoWait WaitState = iota
	SeekWaiting
	TuneWaiting
	RDSWaiting
	WaitOver
	SeekCancel
)

func (w WaitState) String() string {
	switch w {
	case NoWait:
		return "NoWait"
	case SeekWaiting:
		return "SeekWaiting"
	case TuneWaiting:
		return "TuneWaiting"
	case RDSWaiting:
		return "RDSWaiting"
	case WaitOver:
		return "WaitOver"
	case SeekCancel:
		return "SeekCancel"
	}
	return "unknown"
}

func (w WaitState) waiting() bool {
	return w == SeekWaiting || w == TuneWaiting || w == RDSWaiting
}

// CompletionSignal is the flag the seek, tune and RDS protocols block on.
//
// It is deliberately outside the driver mutex: the protocol holds that
// mutex for its whole duration, including while it waits, so the interrupt
// source must be able to resolve the wait without taking it. The value is
// an atomic word and wake-ups go through a one-slot channel.
type CompletionSignal struct {
	state int32
	wake  chan struct{}
}

// NewCompletionSignal returns a signal in the NoWait state.
func NewCompletionSignal() *CompletionSignal {
	return &CompletionSignal{wake: make(chan struct{}, 1)}
}

// Load returns the current value.
func (c *CompletionSignal) Load() WaitState {
	return WaitState(atomic.LoadInt32(&c.state))
}

// Interrupt marks a pending seek, tune or RDS wait as complete. It is meant
// to be called from the chip interrupt handler and is a no-op when nothing
// is waiting.
func (c *CompletionSignal) Interrupt() bool {
	for {
		cur := c.Load()
		if !cur.waiting() {
			return false
		}
		if atomic.CompareAndSwapInt32(&c.state, int32(cur), int32(WaitOver)) {
			c.notify()
			return true
		}
	}
}

// CancelSeek aborts a pending seek. Tune and RDS waits are not affected.
func (c *CompletionSignal) CancelSeek() bool {
	if atomic.CompareAndSwapInt32(&c.state, int32(SeekWaiting), int32(SeekCancel)) {
		c.notify()
		return true
	}
	return false
}

func (c *CompletionSignal) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// arm puts the signal in a waiting state before the request that will
// trigger the interrupt is sent, dropping any stale wake-up.
func (c *CompletionSignal) arm(w WaitState) {
	select {
	case <-c.wake:
	default:
	}
	atomic.StoreInt32(&c.state, int32(w))
}

// reset returns the signal to NoWait.
func (c *CompletionSignal) reset() {
	atomic.StoreInt32(&c.state, int32(NoWait))
}

// await blocks until the signal leaves the armed state or ctx is done. It
// returns the value observed last; an early return does not imply that the
// operation completed.
func (c *CompletionSignal) await(ctx context.Context, armed WaitState) WaitState {
	return c.block(ctx, armed, nil)
}

// awaitTimeout is await bounded by d.
func (c *CompletionSignal) awaitTimeout(ctx context.Context, armed WaitState, d time.Duration) WaitState {
	t := time.NewTimer(d)
	defer t.Stop()
	return c.block(ctx, armed, t.C)
}

func (c *CompletionSignal) block(ctx context.Context, armed WaitState, expired <-chan time.Time) WaitState {
	for {
		if cur := c.Load(); cur != armed {
			return cur
		}
		select {
		case <-c.wake:
		case <-ctx.Done():
			return c.Load()
		case <-expired:
			return c.Load()
		}
	}
}
