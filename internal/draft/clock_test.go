package draft

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresExactlyOnce(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewTimerRegistry(fc)
	draftID := uuid.New()

	fired := make(chan struct{}, 4)
	r.Arm(draftID, time.Minute, func() { fired <- struct{}{} })
	require.True(t, r.Active(draftID))

	fc.Advance(time.Minute)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	// Advancing further must not fire again.
	fc.Advance(10 * time.Minute)
	select {
	case <-fired:
		t.Fatal("timer fired twice")
	case <-time.After(50 * time.Millisecond):
	}
	assert.False(t, r.Active(draftID))
}

func TestRearmReplacesPreviousTimer(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewTimerRegistry(fc)
	draftID := uuid.New()

	var firstFired, secondFired bool
	done := make(chan struct{}, 1)

	r.Arm(draftID, time.Minute, func() { firstFired = true })
	r.Arm(draftID, 2*time.Minute, func() {
		secondFired = true
		done <- struct{}{}
	})

	fc.Advance(2 * time.Minute)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement timer did not fire")
	}
	assert.False(t, firstFired, "replaced timer must not fire")
	assert.True(t, secondFired)
}

func TestCancelPreventsFiring(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewTimerRegistry(fc)
	draftID := uuid.New()

	fired := make(chan struct{}, 1)
	r.Arm(draftID, time.Minute, func() { fired <- struct{}{} })
	r.Cancel(draftID)
	require.False(t, r.Active(draftID))

	fc.Advance(time.Hour)

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelUnknownDraftIsNoop(t *testing.T) {
	r := NewTimerRegistry(clockwork.NewFakeClock())
	r.Cancel(uuid.New())
}

func TestTimersAreIndependentPerDraft(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := NewTimerRegistry(fc)
	a, b := uuid.New(), uuid.New()

	firedA := make(chan struct{}, 1)
	firedB := make(chan struct{}, 1)
	r.Arm(a, time.Minute, func() { firedA <- struct{}{} })
	r.Arm(b, time.Hour, func() { firedB <- struct{}{} })

	r.Cancel(b)
	fc.Advance(time.Minute)

	select {
	case <-firedA:
	case <-time.After(time.Second):
		t.Fatal("draft A timer did not fire")
	}
	select {
	case <-firedB:
		t.Fatal("cancelled draft B timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}
