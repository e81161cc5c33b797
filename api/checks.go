package api

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/checker"
	"github.com/rs/zerolog/log"
)

// checkSchedule keeps the periodic and daily checks of every user that has
// used the API since start-up.
type checkSchedule struct {
	checker  *checker.Checker
	interval time.Duration

	mu    sync.Mutex
	users map[string]*userChecks
}

type userChecks struct {
	cancelPeriodic func()
	cancelDaily    func()
}

func newCheckSchedule(c *checker.Checker, interval time.Duration) *checkSchedule {
	return &checkSchedule{
		checker:  c,
		interval: interval,
		users:    make(map[string]*userChecks),
	}
}

// ensure starts the checks of userID unless they already run. The settings
// are read before taking the lock.
func (s *checkSchedule) ensure(ctx context.Context, userID string) {
	if s.checker == nil || s.scheduled(userID) {
		return
	}

	checkTime, err := s.checker.DailyCheckTime(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to read daily check time")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; ok {
		return
	}

	checks := &userChecks{}
	cancel, err := s.checker.StartPeriodic(userID, s.interval)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to schedule periodic checks")
		return
	}
	checks.cancelPeriodic = cancel

	if checkTime != "" {
		if checks.cancelDaily, err = s.checker.StartDaily(userID, checkTime); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("failed to schedule daily check")
		}
	}

	s.users[userID] = checks
}

// rescheduleDaily moves the daily check of userID to checkTime.
func (s *checkSchedule) rescheduleDaily(userID, checkTime string) {
	if s.checker == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	checks, ok := s.users[userID]
	if !ok {
		return
	}
	if checks.cancelDaily != nil {
		checks.cancelDaily()
		checks.cancelDaily = nil
	}

	cancel, err := s.checker.StartDaily(userID, checkTime)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to reschedule daily check")
		return
	}
	checks.cancelDaily = cancel
}

func (s *checkSchedule) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, checks := range s.users {
		if checks.cancelPeriodic != nil {
			checks.cancelPeriodic()
		}
		if checks.cancelDaily != nil {
			checks.cancelDaily()
		}
		delete(s.users, userID)
	}
}

func (s *checkSchedule) scheduled(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[userID]
	return ok
}

// scheduleUserChecks starts the automatic checks of the authenticated user on
// their first request.
func (server *Server) scheduleUserChecks() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		server.checks.ensure(ctx, currentUser(ctx).UserID())
		ctx.Next()
	}
}
