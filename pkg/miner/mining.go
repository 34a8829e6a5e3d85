package miner

import (
	"context"
	"fmt"
	"time"
)

// StartMining runs the toggle protocol: ensure the remote activation control
// is on, then start the recurring stat-refresh timer. Exhausting the toggle
// retries is not fatal; the session stays usable and inactive.
func (s *Session) StartMining(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mining {
		s.logAt(SeverityWarn, "[%d] Mining already active", s.Account.ID)
		return
	}
	if s.surface == nil || s.state != StatePolling {
		s.logAt(SeverityWarn, "[%d] Session not ready to mine", s.Account.ID)
		return
	}

	s.logAt(SeverityInfo, "[%d] Activating Mining Process...", s.Account.ID)

	var wasOff bool
	err := retryOp(ctx, toggleAttempts, 0, func(attempt int) error {
		s.sleep(ctx, s.timings.togglePrecheck)

		result, toggleErr := s.surface.ActivateToggle(toggleSelector)
		if toggleErr == nil && !result.Found {
			toggleErr = fmt.Errorf("toggle button not found")
		}
		if toggleErr != nil {
			s.logAt(SeverityError, "[%d] Start mining attempt %d failed: %v", s.Account.ID, attempt, toggleErr)
			return toggleErr
		}

		wasOff = result.WasOff
		return nil
	})
	if err != nil {
		s.logAt(SeverityError, "[%d] Max retries reached for start mining.", s.Account.ID)
		s.mutateInfo(func(info *UserInfo) { info.Status = StatusInactive })
		s.notifyInfo()
		return
	}

	s.sleep(ctx, s.timings.togglePostClick)
	if wasOff {
		s.logAt(SeveritySuccess, "[%d] Mining Activated Successfully", s.Account.ID)
	} else {
		s.logAt(SeverityInfo, "[%d] Mining Already Active", s.Account.ID)
	}

	if err := s.transition(StateMining); err != nil {
		return
	}
	s.mining = true
	s.mutateInfo(func(info *UserInfo) { info.Status = StatusActive })
	s.notifyInfo()

	s.miningCancel = make(chan struct{})
	s.miningDone = make(chan struct{})
	go s.runMiningTimer(s.surface, s.miningCancel, s.miningDone)

	s.logAt(SeveritySuccess, "[%d] Mining started", s.Account.ID)
}

// StopMining cancels the recurring timer and marks the account inactive.
// Idempotent: calling it while not mining only logs a notice. It never
// fails outward.
func (s *Session) StopMining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopMiningLocked()
}

// stopMiningLocked synchronously cancels the mining timer before returning,
// so callers can safely tear down the surface afterwards.
func (s *Session) stopMiningLocked() {
	if !s.mining {
		s.logAt(SeverityWarn, "[%d] Mining not active", s.Account.ID)
		return
	}

	s.logAt(SeverityInfo, "[%d] Stopping Mining Process...", s.Account.ID)
	s.mining = false
	close(s.miningCancel)
	<-s.miningDone // the timer goroutine never takes s.mu, so this cannot deadlock
	s.miningCancel = nil
	s.miningDone = nil

	if s.state == StateMining {
		_ = s.transition(StatePolling)
	}
	s.mutateInfo(func(info *UserInfo) {
		info.Status = StatusInactive
		info.Ops = "N/A"
	})
	s.notifyInfo()
	s.logAt(SeverityWarn, "[%d] Mining stopped", s.Account.ID)
}

// runMiningTimer is the only concurrently scheduled activity of a session.
// It captures the surface it was started with and touches nothing else that
// the session mutex guards.
func (s *Session) runMiningTimer(surface Surface, cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.timings.miningInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			s.updateOps(surface)
			s.updatePoints(surface)
		}
	}
}

// updateOps re-reads the ops/speed field; a failed read degrades to the
// "N/A" sentinel.
func (s *Session) updateOps(surface Surface) {
	ops, err := surface.ReadText([]string{speedSelector})
	if err != nil || ops == "" {
		ops = "N/A"
	}
	s.mutateInfo(func(info *UserInfo) { info.Ops = ops })
	s.notifyInfo()
}

// updatePoints re-reads the points field; a failed read keeps the previous
// value.
func (s *Session) updatePoints(surface Surface) {
	points, err := surface.ReadText([]string{balanceSelector})
	if err != nil || points == "" {
		return
	}
	s.mutateInfo(func(info *UserInfo) { info.Points = points })
	s.notifyInfo()
}
