package events

import "nusantara-erp/internal/entities"

const AuditEntryRecordedName = "audit.entry.recorded"

// AuditEntryRecorded carries a redacted, diffed audit row waiting to be persisted.
type AuditEntryRecorded struct {
	Log entities.AuditLog
}

func (e AuditEntryRecorded) Name() string {
	return AuditEntryRecordedName
}
