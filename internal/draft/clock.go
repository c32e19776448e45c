package draft

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TimerRegistry tracks at most one live pick clock per draft. Arming a
// draft replaces any timer already running for it, and a cancelled or
// replaced timer never fires its callback.
type TimerRegistry struct {
	clock clockwork.Clock

	mu     sync.Mutex
	timers map[uuid.UUID]*pickTimer
}

type pickTimer struct {
	timer clockwork.Timer
	done  chan struct{}
}

// NewTimerRegistry creates a registry on the given clock.
func NewTimerRegistry(clock clockwork.Clock) *TimerRegistry {
	return &TimerRegistry{
		clock:  clock,
		timers: make(map[uuid.UUID]*pickTimer),
	}
}

// Arm schedules fn to run after d. Any previous timer for the draft is
// cancelled first, so exactly one callback is live per draft.
func (r *TimerRegistry) Arm(draftID uuid.UUID, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.timers[draftID]; ok {
		prev.stop()
	}

	pt := &pickTimer{
		timer: r.clock.NewTimer(d),
		done:  make(chan struct{}),
	}
	r.timers[draftID] = pt

	go func() {
		select {
		case <-pt.timer.Chan():
		case <-pt.done:
			return
		}

		// Only the still-registered timer may fire; a replacement that
		// raced in wins.
		r.mu.Lock()
		live := r.timers[draftID] == pt
		if live {
			delete(r.timers, draftID)
		}
		r.mu.Unlock()

		if live {
			fn()
		}
	}()
}

// Cancel stops the draft's pick clock if one is running.
func (r *TimerRegistry) Cancel(draftID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pt, ok := r.timers[draftID]; ok {
		pt.stop()
		delete(r.timers, draftID)
	}
}

// Active reports whether the draft currently has a live pick clock.
func (r *TimerRegistry) Active(draftID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[draftID]
	return ok
}

func (t *pickTimer) stop() {
	t.timer.Stop()
	close(t.done)
}
