package auditlog

import (
	"context"

	"go.uber.org/zap"

	"github.com/takdim/inven-go/pkg/models"
)

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Store persists audit entries.
type Store interface {
	PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error
}

// Actor is the user and client address behind a change.
type Actor struct {
	UserID *int
	IP     string
}

type Auditlog struct {
	store  Store
	logger *zap.Logger
}

func NewAuditLog(store Store, logger *zap.Logger) *Auditlog {
	return &Auditlog{store: store, logger: logger}
}

// Log records action on item. Failures are logged and never reach the caller.
func (a *Auditlog) Log(ctx context.Context, actor Actor, action, description string, data interface{}, item Auditable) {
	entry := item.CreateLogView()
	entry.Action = action
	entry.Description = description
	entry.UserID = actor.UserID
	if actor.IP != "" {
		ip := actor.IP
		entry.IPAddress = &ip
	}

	if err := a.store.PersistLog(ctx, entry, data); err != nil {
		a.logger.Warn("Unable to create audit log entry",
			zap.String("resource_type", entry.ResourceType),
			zap.Int("resource_id", entry.ResourceID),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	a.logger.Debug("Created audit log entry",
		zap.String("resource_type", entry.ResourceType),
		zap.Int("resource_id", entry.ResourceID),
		zap.String("action", action),
	)
}
