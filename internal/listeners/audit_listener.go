package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nusantara-erp/internal/entities"
	"nusantara-erp/internal/events"
	"nusantara-erp/pkg/eventbus"
)

type auditInserter interface {
	Insert(ctx context.Context, log *entities.AuditLog) error
}

// AuditPersistListener writes recorded audit entries off the request path.
type AuditPersistListener struct {
	repo   auditInserter
	logger *zap.Logger
}

func NewAuditPersistListener(repo auditInserter, logger *zap.Logger) *AuditPersistListener {
	return &AuditPersistListener{repo: repo, logger: logger}
}

func (l *AuditPersistListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.AuditEntryRecordedName, l.handleAuditEntryRecorded)
	l.logger.Info("audit listener subscribed", zap.String("event", events.AuditEntryRecordedName))
}

func (l *AuditPersistListener) handleAuditEntryRecorded(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.AuditEntryRecorded)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	entry := e.Log
	if err := l.repo.Insert(ctx, &entry); err != nil {
		return fmt.Errorf("persist audit entry %s %s: %w", entry.Action, entry.EntityType, err)
	}
	return nil
}
