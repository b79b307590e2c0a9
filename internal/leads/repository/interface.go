package repository

import (
	"context"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id string) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
	ListAll(ctx context.Context) ([]domain.Lead, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Update(ctx context.Context, lead domain.Lead) (domain.Lead, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// GroupStore persists duplicate groups.
type GroupStore interface {
	GetGroup(ctx context.Context, id string) (domain.DuplicateGroup, error)
	ListGroups(ctx context.Context, status *domain.DuplicateStatus) ([]domain.DuplicateGroup, error)
	SaveGroups(ctx context.Context, groups ...domain.DuplicateGroup) error
	DeleteGroup(ctx context.Context, id string) error
}

// SettingsStore persists duplicate detection thresholds.
type SettingsStore interface {
	GetSettings(ctx context.Context, def duplicates.Thresholds) (duplicates.Thresholds, error)
	PutSettings(ctx context.Context, th duplicates.Thresholds) error
}

// AuditLog records decisions taken on duplicate groups.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]AuditEntry, error)
}

// LeadsRepository is the full contract used by the service layer.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	GroupStore
	SettingsStore
	AuditLog
}

// Compile-time check that Repository implements LeadsRepository.
var _ LeadsRepository = (*Repository)(nil)
