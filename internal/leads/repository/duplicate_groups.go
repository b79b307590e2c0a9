package repository

import (
	"context"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/kvstore"
)

func (r *Repository) loadGroups(ctx context.Context) ([]domain.DuplicateGroup, error) {
	groups, err := kvstore.Get(ctx, r.store, KeyDuplicateGroups, []domain.DuplicateGroup{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load duplicate groups", err)
	}
	return groups, nil
}

func (r *Repository) GetGroup(ctx context.Context, id string) (domain.DuplicateGroup, error) {
	groups, err := r.loadGroups(ctx)
	if err != nil {
		return domain.DuplicateGroup{}, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return domain.DuplicateGroup{}, apperr.Wrap(apperr.KindNotFound, "duplicate group not found", ErrNotFound).With("groupId", id)
}

// ListGroups returns groups in creation order, optionally filtered by status.
func (r *Repository) ListGroups(ctx context.Context, status *domain.DuplicateStatus) ([]domain.DuplicateGroup, error) {
	groups, err := r.loadGroups(ctx)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return groups, nil
	}

	filtered := make([]domain.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if g.Status == *status {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

// SaveGroups upserts groups by id, appending new ones.
func (r *Repository) SaveGroups(ctx context.Context, groups ...domain.DuplicateGroup) error {
	if len(groups) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadGroups(ctx)
	if err != nil {
		return err
	}

	pos := make(map[string]int, len(stored))
	for i, g := range stored {
		pos[g.ID] = i
	}
	for _, g := range groups {
		if i, ok := pos[g.ID]; ok {
			stored[i] = g
			continue
		}
		pos[g.ID] = len(stored)
		stored = append(stored, g)
	}

	if err := kvstore.Set(ctx, r.store, KeyDuplicateGroups, stored); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save duplicate groups", err)
	}
	return nil
}

// DeleteGroup removes a group. Missing ids are not an error.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadGroups(ctx)
	if err != nil {
		return err
	}

	kept := stored[:0]
	for _, g := range stored {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(stored) {
		return nil
	}

	if err := kvstore.Set(ctx, r.store, KeyDuplicateGroups, kept); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save duplicate groups", err)
	}
	return nil
}

func (r *Repository) GetSettings(ctx context.Context, def duplicates.Thresholds) (duplicates.Thresholds, error) {
	th, err := kvstore.Get(ctx, r.store, KeyDuplicateSettings, def)
	if err != nil {
		return def, apperr.Wrap(apperr.KindInternal, "load duplicate settings", err)
	}
	return th, nil
}

func (r *Repository) PutSettings(ctx context.Context, th duplicates.Thresholds) error {
	if err := kvstore.Set(ctx, r.store, KeyDuplicateSettings, th); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save duplicate settings", err)
	}
	return nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := kvstore.Get(ctx, r.store, KeyDuplicateAudit, []AuditEntry{})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load duplicate audit", err)
	}

	entries = append(entries, entry)
	if len(entries) > maxAuditEntries {
		entries = entries[len(entries)-maxAuditEntries:]
	}

	if err := kvstore.Set(ctx, r.store, KeyDuplicateAudit, entries); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save duplicate audit", err)
	}
	return nil
}

// ListAudit returns the most recent entries first.
func (r *Repository) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	entries, err := kvstore.Get(ctx, r.store, KeyDuplicateAudit, []AuditEntry{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load duplicate audit", err)
	}

	out := make([]AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
