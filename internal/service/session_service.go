// Package service holds the session lifecycle: order creation, payment
// confirmation and lazy expiration.  All transitions happen inside
// SessionStore.Update so concurrent callers never apply one twice.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/zenpod/internal/logger"
	"github.com/iliyamo/zenpod/internal/metrics"
	"github.com/iliyamo/zenpod/internal/model"
	"github.com/iliyamo/zenpod/internal/payment"
	"github.com/iliyamo/zenpod/internal/queue"
	"github.com/iliyamo/zenpod/internal/repository"
)

var (
	// ErrInvalidDuration is returned for durations outside (0, max].
	ErrInvalidDuration = errors.New("invalid session duration")
	// ErrSessionEnded is returned when forcing activation of an ended session.
	ErrSessionEnded = errors.New("session has ended")
)

const eventPublishTimeout = 10 * time.Second

// UserDirectory resolves identity tokens and records completed minutes.
type UserDirectory interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
	AddMinutes(ctx context.Context, userID uint64, minutes int64) error
}

// EventPublisher receives committed session transitions.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, ev queue.SessionEvent) error
}

// SessionConfig is the pricing and settlement polling policy.
type SessionConfig struct {
	RatePerHourMinor int64
	MaxDurationHours float64
	GatewayTimeout   time.Duration
	PollInterval     time.Duration
}

// CreatedSession is the outcome of RequestSession.
type CreatedSession struct {
	SessionID   uint64
	OrderRef    string
	PayToken    string
	AmountMinor int64
	Simulated   bool
	IsActive    bool
}

// Status is the observable state of a session at one instant.
type Status struct {
	IsActive           bool
	IsPaid             bool
	RemainingSeconds   *float64
	EndTime            *time.Time
	GatewayUnavailable bool
	RetryAfterSeconds  int
}

// SessionService implements the session lifecycle on top of a store and
// a payment gateway.
type SessionService struct {
	store   repository.SessionStore
	gateway payment.Gateway
	users   UserDirectory
	events  EventPublisher
	cfg     SessionConfig
	log     logger.Logger

	// Now is the clock used for every timing decision.
	Now func() time.Time
	// NewOrderRef generates order references.
	NewOrderRef func() string
}

// NewSessionService wires a SessionService.  users and events may be nil.
func NewSessionService(store repository.SessionStore, gateway payment.Gateway, users UserDirectory, events EventPublisher, cfg SessionConfig, log logger.Logger) *SessionService {
	return &SessionService{
		store:       store,
		gateway:     gateway,
		users:       users,
		events:      events,
		cfg:         cfg,
		log:         log,
		Now:         func() time.Time { return time.Now().UTC() },
		NewOrderRef: newOrderRef,
	}
}

func newOrderRef() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Price returns the amount in minor units for a duration.  It is never
// below one minor unit.
func Price(durationHours float64, ratePerHourMinor int64) int64 {
	amount := int64(math.Round(durationHours * float64(ratePerHourMinor)))
	if amount < 1 {
		return 1
	}
	return amount
}

// RequestSession creates a payable order and the session tied to it.
// The session starts immediately when the gateway is simulated.
func (s *SessionService) RequestSession(ctx context.Context, durationHours float64, userToken string) (*CreatedSession, error) {
	if math.IsNaN(durationHours) || durationHours <= 0 || (s.cfg.MaxDurationHours > 0 && durationHours > s.cfg.MaxDurationHours) {
		return nil, ErrInvalidDuration
	}

	ref := s.NewOrderRef()
	amount := Price(durationHours, s.cfg.RatePerHourMinor)
	order := payment.Order{
		OrderRef:    ref,
		AmountMinor: amount,
		Description: fmt.Sprintf("ZenPod %g hour session", durationHours),
	}
	res, err := s.createOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		UserID:        s.resolveUser(ctx, userToken),
		DurationHours: durationHours,
		OrderRef:      ref,
		CreatedAt:     s.Now(),
	}
	if res.Simulated {
		start := sess.CreatedAt
		sess.IsPaid = true
		sess.IsActive = true
		sess.StartTime = &start
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	mode := metrics.ModeLive
	if res.Simulated {
		mode = metrics.ModeSimulated
	}
	metrics.SessionsCreated.WithLabelValues(mode).Inc()
	s.log.Info("session created", map[string]interface{}{
		"session_id": sess.ID, "out_trade_no": ref, "amount_minor": amount, "simulated": res.Simulated,
	})
	if sess.IsActive {
		metrics.SessionTransitions.WithLabelValues(metrics.TransitionActivated).Inc()
		s.publish(ctx, queue.EventSessionActivated, sess, false)
	}

	return &CreatedSession{
		SessionID:   sess.ID,
		OrderRef:    ref,
		PayToken:    res.PayToken,
		AmountMinor: amount,
		Simulated:   res.Simulated,
		IsActive:    sess.IsActive,
	}, nil
}

// GetStatus reports the session state at the current instant, expiring
// sessions whose time is up and activating sessions whose order has
// settled.  Unknown ids yield repository.ErrSessionNotFound.
func (s *SessionService) GetStatus(ctx context.Context, id uint64) (Status, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Status{}, err
	}
	now := s.Now()
	switch {
	case sess.IsActive:
		if sess.Remaining(now) > 0 {
			return s.statusOf(sess, now), nil
		}
		return s.expire(ctx, id, now)
	case sess.Ended():
		return s.statusOf(sess, now), nil
	}
	return s.confirmPayment(ctx, sess)
}

func (s *SessionService) expire(ctx context.Context, id uint64, now time.Time) (Status, error) {
	expired := false
	sess, err := s.store.Update(ctx, id, func(row *model.Session) (bool, error) {
		if !row.IsActive || row.Remaining(now) > 0 {
			return false, nil
		}
		end := now
		row.IsActive = false
		row.EndTime = &end
		expired = true
		return true, nil
	})
	if err != nil {
		return Status{}, err
	}
	if expired {
		metrics.SessionTransitions.WithLabelValues(metrics.TransitionExpired).Inc()
		s.log.Info("session expired", map[string]interface{}{"session_id": id})
		s.creditMinutes(ctx, sess)
		s.publish(ctx, queue.EventSessionExpired, sess, false)
	}
	return s.statusOf(sess, now), nil
}

// confirmPayment polls the gateway without holding the row and applies
// the activation only if the locked row is still unpaid.
func (s *SessionService) confirmPayment(ctx context.Context, sess *model.Session) (Status, error) {
	state, err := s.queryOrder(ctx, sess.OrderRef)
	if err != nil {
		s.log.WithError(err).Warn("settlement query failed", map[string]interface{}{"session_id": sess.ID})
		st := s.statusOf(sess, s.Now())
		st.GatewayUnavailable = true
		return st, nil
	}
	now := s.Now()
	if !state.Settled {
		return s.statusOf(sess, now), nil
	}

	activated := false
	updated, err := s.store.Update(ctx, sess.ID, func(row *model.Session) (bool, error) {
		if row.IsPaid || row.Ended() {
			return false, nil
		}
		start := now
		row.IsPaid = true
		row.IsActive = true
		row.StartTime = &start
		activated = true
		return true, nil
	})
	if err != nil {
		return Status{}, err
	}
	if activated {
		metrics.SessionTransitions.WithLabelValues(metrics.TransitionActivated).Inc()
		s.log.Info("session activated", map[string]interface{}{"session_id": sess.ID})
		s.publish(ctx, queue.EventSessionActivated, updated, false)
	}
	return s.statusOf(updated, now), nil
}

// ForceActivate starts a session without payment proof.  Active sessions
// are returned unchanged and ended sessions are refused.
func (s *SessionService) ForceActivate(ctx context.Context, id uint64) (*model.Session, error) {
	now := s.Now()
	activated := false
	sess, err := s.store.Update(ctx, id, func(row *model.Session) (bool, error) {
		switch {
		case row.Ended():
			return false, ErrSessionEnded
		case row.IsActive:
			return false, nil
		}
		start := now
		row.IsPaid = true
		row.IsActive = true
		row.StartTime = &start
		activated = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if activated {
		metrics.SessionTransitions.WithLabelValues(metrics.TransitionForceActivated).Inc()
		s.log.Warn("session force-activated", map[string]interface{}{"session_id": id})
		s.publish(ctx, queue.EventSessionActivated, sess, true)
	}
	return sess, nil
}

func (s *SessionService) statusOf(sess *model.Session, now time.Time) Status {
	st := Status{IsActive: sess.IsActive, IsPaid: sess.IsPaid}
	switch {
	case sess.IsActive:
		rem := math.Max(0, sess.Remaining(now).Seconds())
		st.RemainingSeconds = &rem
	case sess.Ended():
		zero := 0.0
		end := *sess.EndTime
		st.RemainingSeconds = &zero
		st.EndTime = &end
	case !sess.IsPaid:
		st.RetryAfterSeconds = int(math.Ceil(s.cfg.PollInterval.Seconds()))
	}
	return st
}

func (s *SessionService) createOrder(ctx context.Context, o payment.Order) (payment.OrderResult, error) {
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}
	start := time.Now()
	res, err := s.gateway.CreateOrder(ctx, o)
	metrics.GatewayDuration.WithLabelValues(metrics.OpCreateOrder).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayErrors.WithLabelValues(metrics.OpCreateOrder).Inc()
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, payment.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %w", payment.ErrGatewayUnavailable, err)
		}
		return payment.OrderResult{}, err
	}
	return res, nil
}

func (s *SessionService) queryOrder(ctx context.Context, ref string) (payment.OrderState, error) {
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}
	start := time.Now()
	state, err := s.gateway.QueryOrder(ctx, ref)
	metrics.GatewayDuration.WithLabelValues(metrics.OpQueryOrder).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayErrors.WithLabelValues(metrics.OpQueryOrder).Inc()
	}
	return state, err
}

// resolveUser maps a token to a user id.  Unknown tokens and lookup
// failures both leave the session anonymous.
func (s *SessionService) resolveUser(ctx context.Context, token string) *uint64 {
	if token == "" || s.users == nil {
		return nil
	}
	u, err := s.users.ResolveToken(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.WithError(err).Warn("user token lookup failed; creating anonymous session", nil)
		}
		return nil
	}
	id := u.ID
	return &id
}

func (s *SessionService) creditMinutes(ctx context.Context, sess *model.Session) {
	if s.users == nil || sess.UserID == nil {
		return
	}
	minutes := int64(math.Round(sess.DurationHours * 60))
	if err := s.users.AddMinutes(ctx, *sess.UserID, minutes); err != nil {
		s.log.WithError(err).Warn("crediting session minutes failed", map[string]interface{}{
			"session_id": sess.ID, "user_id": *sess.UserID,
		})
	}
}

// publish sends the event in the background.  The request context only
// contributes its values; its cancellation does not abort delivery.
func (s *SessionService) publish(ctx context.Context, typ string, sess *model.Session, forced bool) {
	if s.events == nil {
		return
	}
	ev := queue.SessionEvent{
		Type:          typ,
		SessionID:     sess.ID,
		UserID:        sess.UserID,
		OrderRef:      sess.OrderRef,
		DurationHours: sess.DurationHours,
		Forced:        forced,
		StartTime:     sess.StartTime,
		EndTime:       sess.EndTime,
		OccurredAt:    s.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
		defer cancel()
		_ = s.events.PublishSessionEvent(ctx, ev)
	}()
}
