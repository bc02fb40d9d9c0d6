package radio

import (
	"context"
	"testing"
	"time"

	"gobot.io/x/gobot/gobottest"
)

func TestCompletionSignalInterrupt(t *testing.T) {
	c := NewCompletionSignal()
	gobottest.Assert(t, c.Interrupt(), false)
	gobottest.Assert(t, c.Load(), NoWait)

	for _, w := range []WaitState{SeekWaiting, TuneWaiting, RDSWaiting} {
		c.arm(w)
		gobottest.Assert(t, c.Interrupt(), true)
		gobottest.Assert(t, c.Load(), WaitOver)
	}

	// a late interrupt does not disturb a resolved wait
	gobottest.Assert(t, c.Interrupt(), false)
	gobottest.Assert(t, c.Load(), WaitOver)
}

func TestCompletionSignalCancelSeek(t *testing.T) {
	c := NewCompletionSignal()

	c.arm(SeekWaiting)
	gobottest.Assert(t, c.CancelSeek(), true)
	gobottest.Assert(t, c.Load(), SeekCancel)
	gobottest.Assert(t, c.Interrupt(), false)
	gobottest.Assert(t, c.Load(), SeekCancel)

	c.arm(TuneWaiting)
	gobottest.Assert(t, c.CancelSeek(), false)
	gobottest.Assert(t, c.Load(), TuneWaiting)

	c.arm(RDSWaiting)
	gobottest.Assert(t, c.CancelSeek(), false)
	gobottest.Assert(t, c.Load(), RDSWaiting)

	c.reset()
	gobottest.Assert(t, c.CancelSeek(), false)
	gobottest.Assert(t, c.Load(), NoWait)
}

func TestCompletionSignalAwait(t *testing.T) {
	c := NewCompletionSignal()
	c.arm(TuneWaiting)

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Interrupt()
	}()

	gobottest.Assert(t, c.await(testContext(t), TuneWaiting), WaitOver)
}

func TestCompletionSignalAwaitResolvedBeforeWait(t *testing.T) {
	c := NewCompletionSignal()
	c.arm(SeekWaiting)
	c.CancelSeek()

	gobottest.Assert(t, c.await(context.Background(), SeekWaiting), SeekCancel)
}

func TestCompletionSignalAwaitInterrupted(t *testing.T) {
	c := NewCompletionSignal()
	c.arm(TuneWaiting)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gobottest.Assert(t, c.await(ctx, TuneWaiting), TuneWaiting)
}

func TestCompletionSignalAwaitTimeout(t *testing.T) {
	c := NewCompletionSignal()

	// a stale wake-up from an earlier wait must not end this one
	c.arm(SeekWaiting)
	c.Interrupt()
	c.arm(RDSWaiting)

	start := time.Now()
	gobottest.Assert(t, c.awaitTimeout(context.Background(), RDSWaiting, 20*time.Millisecond), RDSWaiting)
	gobottest.Assert(t, time.Since(start) >= 20*time.Millisecond, true)

	gobottest.Assert(t, c.awaitTimeout(context.Background(), RDSWaiting, 0), RDSWaiting)
}

func TestWaitStateString(t *testing.T) {
	gobottest.Assert(t, SeekCancel.String(), "SeekCancel")
	gobottest.Assert(t, NoWait.String(), "NoWait")
	gobottest.Assert(t, WaitState(42).String(), "unknown")
}
