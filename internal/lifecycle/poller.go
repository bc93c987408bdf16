package lifecycle

import (
	"context"
	"log"
	"time"

	"laundrospin-backend/config"
	"laundrospin-backend/internal/model"
	"laundrospin-backend/internal/store"
)

// Poller is the external timer actor that advances machines through the
// advisory statuses. The session manager only ever writes available and
// in_cycle; this loop moves a machine to in_buffer once its active
// session has outlived the paid cycle, and to overstay once the paid
// buffer is gone too. It never frees a machine.
type Poller struct {
	cfg            *config.Config
	store          store.Store
	onStatusChange func()
	now            func() time.Time
}

// NewPoller creates a lifecycle poller backed by the given store.
// onStatusChange is invoked after every landed status write, so cached
// machine views can be flushed; it may be nil.
func NewPoller(cfg *config.Config, s store.Store, onStatusChange func()) *Poller {
	return &Poller{
		cfg:            cfg,
		store:          s,
		onStatusChange: onStatusChange,
		now:            time.Now,
	}
}

// Run executes a poll on the configured interval until ctx is
// cancelled. A first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Poller.Enabled {
		log.Println("Lifecycle poller is disabled in the configuration. It will not run.")
		return
	}

	log.Printf("Lifecycle poller started. Polling every %v.", p.cfg.Poller.Interval)
	ticker := time.NewTicker(p.cfg.Poller.Interval)
	defer ticker.Stop()

	p.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Lifecycle poller stopping.")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce evaluates every machine with an active session and updates
// its advisory status from the session's elapsed time.
func (p *Poller) PollOnce(ctx context.Context) {
	machines, err := p.store.ListMachines(ctx)
	if err != nil {
		log.Printf("lifecycle poll failed to list machines: %v", err)
		return
	}

	activeSessions, err := p.store.ActiveSessions(ctx)
	if err != nil {
		log.Printf("lifecycle poll failed to load active sessions: %v", err)
		return
	}

	now := p.now()
	for _, machine := range machines {
		sess, occupied := activeSessions[machine.ID]
		if !occupied {
			continue
		}

		next := statusForElapsed(now.Sub(sess.StartedAt), &sess)
		if next == machine.Status {
			continue
		}

		advanced, err := p.store.AdvanceMachineStatus(ctx, machine.ID, next)
		if err != nil {
			log.Printf("lifecycle poll failed to update machine %d: %v", machine.ID, err)
			continue
		}
		if !advanced {
			// The session ended between the read and the write; the
			// machine is free and must stay that way.
			continue
		}

		if p.onStatusChange != nil {
			p.onStatusChange()
		}
		log.Printf("machine %d moved to %s (session %d elapsed %v)", machine.ID, next, sess.ID, now.Sub(sess.StartedAt).Round(time.Second))
	}
}

// statusForElapsed maps a running session's elapsed time onto the
// machine lifecycle: in_cycle while the cycle runs, in_buffer during
// paid buffer time, overstay after that.
func statusForElapsed(elapsed time.Duration, sess *model.Session) model.MachineStatus {
	cycle := time.Duration(sess.CycleSeconds) * time.Second
	buffer := time.Duration(sess.BufferSeconds) * time.Second

	switch {
	case elapsed > cycle+buffer:
		return model.StatusOverstay
	case elapsed > cycle:
		return model.StatusInBuffer
	default:
		return model.StatusInCycle
	}
}
