// Package repository persists leads, duplicate groups, detection settings
// and the duplicate audit trail as JSON collections in the named value store.
package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/kvstore"
)

// Value store keys.
const (
	KeyLeads             = "leads"
	KeyDuplicateGroups   = "duplicate-groups"
	KeyDuplicateSettings = "duplicate-settings"
	KeyDuplicateAudit    = "duplicate-audit"
)

// maxAuditEntries bounds the audit collection; older entries are dropped.
const maxAuditEntries = 1000

var ErrNotFound = errors.New("not found")

// Repository reads and rewrites whole collections. Writes are serialized
// within the process.
type Repository struct {
	store kvstore.Store
	mu    sync.Mutex
}

func New(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// ListParams filters and pages the lead list.
type ListParams struct {
	Status    *domain.LeadStatus
	Rating    *domain.LeadRating
	Priority  *domain.LeadPriority
	Search    string
	MinScore  *int
	Offset    int
	Limit     int
	SortBy    string
	SortOrder string
}

// AuditEntry is one decision taken on a duplicate group.
type AuditEntry struct {
	GroupID   string                 `json:"groupId"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor,omitempty"`
	LeadIDs   []string               `json:"leadIds"`
	PrimaryID string                 `json:"primaryLeadId,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Status    domain.DuplicateStatus `json:"status"`
	At        time.Time              `json:"at"`
}

func (r *Repository) loadLeads(ctx context.Context) ([]domain.Lead, error) {
	leads, err := kvstore.Get(ctx, r.store, KeyLeads, []domain.Lead{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load leads", err)
	}
	return leads, nil
}

func (r *Repository) saveLeads(ctx context.Context, leads []domain.Lead) error {
	if err := kvstore.Set(ctx, r.store, KeyLeads, leads); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save leads", err)
	}
	return nil
}

func indexOf(leads []domain.Lead, id string) int {
	for i := range leads {
		if leads[i].ID == id {
			return i
		}
	}
	return -1
}

func leadNotFound(id string) error {
	return apperr.Wrap(apperr.KindNotFound, "lead not found", ErrNotFound).With("leadId", id)
}

func (r *Repository) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	leads, err := r.loadLeads(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	i := indexOf(leads, id)
	if i < 0 {
		return domain.Lead{}, leadNotFound(id)
	}
	return leads[i], nil
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Lead, error) {
	return r.loadLeads(ctx)
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	leads, err := r.loadLeads(ctx)
	if err != nil {
		return nil, 0, err
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	items := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if !matchesFilter(l, params, search) {
			continue
		}
		items = append(items, l)
	}

	sortLeads(items, params.SortBy, params.SortOrder)

	total := len(items)
	start := params.Offset
	if start > total {
		start = total
	}
	end := total
	if params.Limit > 0 && start+params.Limit < total {
		end = start + params.Limit
	}
	return items[start:end], total, nil
}

func matchesFilter(l domain.Lead, params ListParams, search string) bool {
	if params.Status != nil && l.Status != *params.Status {
		return false
	}
	if params.Rating != nil && l.Rating != *params.Rating {
		return false
	}
	if params.Priority != nil && l.Priority != *params.Priority {
		return false
	}
	if params.MinScore != nil && l.AILeadScore < *params.MinScore {
		return false
	}
	if search == "" {
		return true
	}
	for _, field := range []string{l.FirstName, l.LastName, l.Email, l.CompanyName, l.Phone} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func sortLeads(items []domain.Lead, sortBy, sortOrder string) {
	desc := !strings.EqualFold(sortOrder, "asc")
	less := func(a, b domain.Lead) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch sortBy {
	case "aiLeadScore":
		less = func(a, b domain.Lead) bool { return a.AILeadScore < b.AILeadScore }
	case "engagementScore":
		less = func(a, b domain.Lead) bool { return a.EngagementScore < b.EngagementScore }
	case "lastName":
		less = func(a, b domain.Lead) bool { return strings.ToLower(a.LastName) < strings.ToLower(b.LastName) }
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func (r *Repository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.loadLeads(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	if indexOf(leads, lead.ID) >= 0 {
		return domain.Lead{}, apperr.Conflict("lead already exists").With("leadId", lead.ID)
	}

	leads = append(leads, lead)
	if err := r.saveLeads(ctx, leads); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) Update(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.loadLeads(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	i := indexOf(leads, lead.ID)
	if i < 0 {
		return domain.Lead{}, leadNotFound(lead.ID)
	}

	leads[i] = lead
	if err := r.saveLeads(ctx, leads); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	n, err := r.DeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return leadNotFound(id)
	}
	return nil
}

func (r *Repository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leads, err := r.loadLeads(ctx)
	if err != nil {
		return 0, err
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := leads[:0]
	for _, l := range leads {
		if _, ok := drop[l.ID]; ok {
			continue
		}
		kept = append(kept, l)
	}
	deleted := len(leads) - len(kept)
	if deleted == 0 {
		return 0, nil
	}
	if err := r.saveLeads(ctx, kept); err != nil {
		return 0, err
	}
	return deleted, nil
}
