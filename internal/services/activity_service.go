package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"ledgerdash/internal/amqp"
	"ledgerdash/internal/core"
	"ledgerdash/internal/log"
)

// Publisher sends activity events to the broker.
type Publisher interface {
	PublishActivity(ctx context.Context, ev *amqp.ActivityEvent) error
	Close() error
}

// ActivityService records successful user actions as activity events.
// Publishing is best effort: failures are logged and counted, never returned.
type ActivityService struct {
	publisher Publisher
	logger    *log.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewActivityService returns a service that publishes through p. A nil
// publisher turns every Record call into a no-op.
func NewActivityService(p Publisher, logger *log.Logger) *ActivityService {
	s := &ActivityService{publisher: p, logger: logger.WithComponent(log.ComponentActivity)}
	if p == nil {
		s.logger.Warn("AMQP client not available, activity events will not be published")
	}
	return s
}

func (s *ActivityService) Enabled() bool { return s.publisher != nil }

// BrokerUp reports whether the publisher's connection is open. Publishers
// that cannot tell are assumed up.
func (s *ActivityService) BrokerUp() bool {
	if s.publisher == nil {
		return false
	}
	if h, ok := s.publisher.(interface{ Healthy() bool }); ok {
		return h.Healthy()
	}
	return true
}

// Mutation kinds accepted by RecordMutation.
const (
	MutationCreated = "created"
	MutationUpdated = "updated"
	MutationDeleted = "deleted"
)

var errUnknownMutation = errors.New("unknown mutation")

func (s *ActivityService) RecordLogin(ctx context.Context, user core.User) {
	ev := amqp.NewActivityEvent(amqp.EventLogin)
	withUser(ev, &user)
	s.publish(ctx, ev)
}

func (s *ActivityService) RecordLogout(ctx context.Context, user *core.User) {
	ev := amqp.NewActivityEvent(amqp.EventLogout)
	withUser(ev, user)
	s.publish(ctx, ev)
}

func (s *ActivityService) RecordCompanyCreated(ctx context.Context, user *core.User, company core.Company) {
	ev := amqp.NewActivityEvent(amqp.EventCompanyCreated)
	withUser(ev, user)
	ev.CompanyID = company.ID
	s.publish(ctx, ev)
}

// RecordMutation records a created, updated or deleted company record.
// recordID is zero for creates, whose id the screen does not track.
func (s *ActivityService) RecordMutation(ctx context.Context, user *core.User, mutation string, companyID int64, resource string, recordID int64) {
	var eventType string
	switch mutation {
	case MutationCreated:
		eventType = amqp.EventRecordCreated
	case MutationUpdated:
		eventType = amqp.EventRecordUpdated
	case MutationDeleted:
		eventType = amqp.EventRecordDeleted
	default:
		s.logger.ErrorContext(ctx, "Dropping activity event", log.FieldError, fmt.Errorf("%w: %q", errUnknownMutation, mutation).Error())
		return
	}
	ev := amqp.NewActivityEvent(eventType)
	withUser(ev, user)
	ev.CompanyID = companyID
	ev.Resource = resource
	ev.RecordID = recordID
	s.publish(ctx, ev)
}

func withUser(ev *amqp.ActivityEvent, user *core.User) {
	if user == nil {
		return
	}
	ev.UserID = user.ID
	ev.Username = user.Username
}

func (s *ActivityService) publish(ctx context.Context, ev *amqp.ActivityEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Skipping activity event, publishing disabled", log.FieldEventType, ev.Type)
		return
	}
	// The user's action already succeeded; a cancelled request must not drop its event.
	if err := s.publisher.PublishActivity(context.WithoutCancel(ctx), ev); err != nil {
		s.failed.Add(1)
		s.logger.ErrorContext(ctx, "Failed to publish activity event",
			log.FieldEventType, ev.Type, log.FieldOperation, log.OpPublish, log.FieldError, err.Error())
		return
	}
	s.published.Add(1)
}

// Counts returns how many events were published and how many failed.
func (s *ActivityService) Counts() (published, failed int64) {
	return s.published.Load(), s.failed.Load()
}

func (s *ActivityService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close activity publisher: %w", err)
	}
	return nil
}
