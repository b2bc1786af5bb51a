package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// NotificationCollaborator fans a crisis alert out to the people who need to
// see it. Calls report failure through their error return; the coordinator
// observes failures, it never lets one abort the rest of the dispatch.
type NotificationCollaborator interface {
	NotifyEmergencyServices(ctx context.Context, alert *CrisisAlert) error
	AlertCrisisCounselor(ctx context.Context, alert *CrisisAlert) error
	NotifyCounselor(ctx context.Context, alert *CrisisAlert) error
	DisplayEmergencyResources(ctx context.Context, userID string) error
}

// AuditCollaborator appends alerts to the append-only audit trail. This is
// the one collaborator whose failure is fatal: an alert that cannot be
// recorded is worse than a slow alert.
type AuditCollaborator interface {
	Append(ctx context.Context, alert *CrisisAlert) error
}

// SafetyService maps a classified safety check onto the ordered side effects
// owed to the user and records the resulting alert.
type SafetyService struct {
	notifier    NotificationCollaborator
	audit       AuditCollaborator
	logger      *zap.Logger
	now         func() time.Time
	idGenerator func() string
	callTimeout time.Duration
}

func NewSafetyService(notifier NotificationCollaborator, audit AuditCollaborator, logger *zap.Logger) *SafetyService {
	return &SafetyService{
		notifier:    notifier,
		audit:       audit,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: func() string { return "alert_" + shortID(12) },
		callTimeout: 10 * time.Second,
	}
}

// Respond dispatches the notification sequence for the check's severity and
// then appends the alert to the audit trail. The audit append runs exactly
// once no matter how many notifications failed; only an audit write failure
// is returned as an error. Failed notification calls are listed on the
// returned alert.
func (s *SafetyService) Respond(ctx context.Context, check *SafetyCheck) (*CrisisAlert, error) {
	if check == nil {
		return nil, NewInvalidError("nil safety check")
	}
	severity := ClassifySeverity(check)
	alert := &CrisisAlert{
		ID:         s.idGenerator(),
		UserID:     check.UserID,
		Severity:   severity,
		Indicators: append([]string(nil), check.Indicators...),
		CreatedAt:  s.now(),
	}

	switch severity {
	case SeverityCritical:
		alert.Escalated = true
		alert.ActionTaken = "emergency services notified; crisis counselor alerted"
		s.dispatch(ctx, alert,
			notificationCall{"notify_emergency_services", func(ctx context.Context) error {
				return s.notifier.NotifyEmergencyServices(ctx, alert)
			}},
			notificationCall{"alert_crisis_counselor", func(ctx context.Context) error {
				return s.notifier.AlertCrisisCounselor(ctx, alert)
			}},
		)
	case SeverityHigh:
		alert.ActionTaken = "crisis counselor alerted; emergency resources displayed"
		s.dispatch(ctx, alert,
			notificationCall{"alert_crisis_counselor", func(ctx context.Context) error {
				return s.notifier.AlertCrisisCounselor(ctx, alert)
			}},
			notificationCall{"display_emergency_resources", func(ctx context.Context) error {
				return s.notifier.DisplayEmergencyResources(ctx, check.UserID)
			}},
		)
	default:
		alert.ActionTaken = "counselor notified"
		s.dispatch(ctx, alert,
			notificationCall{"notify_counselor", func(ctx context.Context) error {
				return s.notifier.NotifyCounselor(ctx, alert)
			}},
		)
	}

	if err := s.audit.Append(ctx, alert); err != nil {
		s.logger.Error("crisis alert audit append failed",
			zap.String("alert_id", alert.ID),
			zap.String("severity", string(severity)),
			zap.Error(err))
		return nil, NewAuditError("append crisis alert", err)
	}
	if len(alert.FailedCalls) > 0 {
		s.logger.Warn("crisis alert recorded with partial dispatch failure",
			zap.String("alert_id", alert.ID),
			zap.Strings("failed_calls", alert.FailedCalls))
	}
	return alert, nil
}

type notificationCall struct {
	name string
	run  func(context.Context) error
}

// dispatch attempts every call in order. A failing call is recorded on the
// alert and the remaining calls still run.
func (s *SafetyService) dispatch(ctx context.Context, alert *CrisisAlert, calls ...notificationCall) {
	for _, c := range calls {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		err := c.run(callCtx)
		cancel()
		if err != nil {
			alert.FailedCalls = append(alert.FailedCalls, c.name)
			s.logger.Warn("notification dispatch failed",
				zap.String("alert_id", alert.ID),
				zap.String("call", c.name),
				zap.Error(err))
		}
	}
}
