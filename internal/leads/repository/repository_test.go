package repository

import (
	"context"
	"testing"
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/kvstore"
)

var base = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, repo *Repository, leads ...domain.Lead) {
	t.Helper()
	for _, l := range leads {
		if _, err := repo.Create(context.Background(), l); err != nil {
			t.Fatalf("seed %s: %v", l.ID, err)
		}
	}
}

func TestLeadCRUD(t *testing.T) {
	ctx := context.Background()
	repo := New(kvstore.NewMemory())

	seed(t, repo, domain.Lead{ID: "a", Email: "a@x.com", CreatedAt: base})

	if _, err := repo.Create(ctx, domain.Lead{ID: "a"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for duplicate id, got %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil || got.Email != "a@x.com" {
		t.Fatalf("expected stored lead, got %+v (%v)", got, err)
	}

	got.Email = "new@x.com"
	if _, err := repo.Update(ctx, got); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if got, _ = repo.GetByID(ctx, "a"); got.Email != "new@x.com" {
		t.Fatalf("expected updated email, got %s", got.Email)
	}

	if _, err := repo.Update(ctx, domain.Lead{ID: "missing"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if _, err := repo.GetByID(ctx, "a"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "a"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListFiltersSortsAndPages(t *testing.T) {
	ctx := context.Background()
	repo := New(kvstore.NewMemory())
	seed(t, repo,
		domain.Lead{ID: "a", FirstName: "Ann", Status: domain.LeadStatusNew, AILeadScore: 30, CreatedAt: base},
		domain.Lead{ID: "b", FirstName: "Bob", Status: domain.LeadStatusQualified, AILeadScore: 80, CreatedAt: base.Add(time.Hour)},
		domain.Lead{ID: "c", FirstName: "Cat", CompanyName: "Annex", Status: domain.LeadStatusNew, AILeadScore: 60, CreatedAt: base.Add(2 * time.Hour)},
	)

	all, total, err := repo.List(ctx, ListParams{})
	if err != nil || total != 3 || all[0].ID != "c" {
		t.Fatalf("expected newest first, got %v total %d (%v)", ids(all), total, err)
	}

	status := domain.LeadStatusNew
	items, total, _ := repo.List(ctx, ListParams{Status: &status, SortBy: "aiLeadScore", SortOrder: "asc"})
	if total != 2 || items[0].ID != "a" || items[1].ID != "c" {
		t.Fatalf("unexpected status filter result: %v", ids(items))
	}

	items, total, _ = repo.List(ctx, ListParams{Search: "ann"})
	if total != 2 {
		t.Fatalf("expected search to match name and company, got %v", ids(items))
	}

	minScore := 50
	items, total, _ = repo.List(ctx, ListParams{MinScore: &minScore, Offset: 1, Limit: 1})
	if total != 2 || len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("unexpected page: %v total %d", ids(items), total)
	}

	items, _, _ = repo.List(ctx, ListParams{Offset: 10})
	if len(items) != 0 {
		t.Fatalf("expected empty page past the end, got %v", ids(items))
	}
}

func TestGroupsSettingsAndAudit(t *testing.T) {
	ctx := context.Background()
	repo := New(kvstore.NewMemory())

	g := domain.DuplicateGroup{ID: "g1", LeadIDs: []string{"a", "b"}, Status: domain.DuplicateStatusPending, CreatedAt: base}
	if err := repo.SaveGroups(ctx, g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.Status = domain.DuplicateStatusIgnored
	if err := repo.SaveGroups(ctx, g, domain.DuplicateGroup{ID: "g2", Status: domain.DuplicateStatusPending}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, _ := repo.ListGroups(ctx, nil)
	if len(all) != 2 || all[0].Status != domain.DuplicateStatusIgnored {
		t.Fatalf("expected upsert in place, got %+v", all)
	}
	pending := domain.DuplicateStatusPending
	if only, _ := repo.ListGroups(ctx, &pending); len(only) != 1 || only[0].ID != "g2" {
		t.Fatalf("expected status filter, got %+v", only)
	}
	if _, err := repo.GetGroup(ctx, "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	def := duplicates.DefaultThresholds()
	if th, _ := repo.GetSettings(ctx, def); th != def {
		t.Fatalf("expected defaults before first save, got %+v", th)
	}
	custom := duplicates.Thresholds{Overall: 60, AutoMerge: 90}
	if err := repo.PutSettings(ctx, custom); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if th, _ := repo.GetSettings(ctx, def); th != custom {
		t.Fatalf("expected stored settings, got %+v", th)
	}

	for _, action := range []string{"merged", "ignored", "reset"} {
		if err := repo.AppendAudit(ctx, AuditEntry{GroupID: "g1", Action: action, At: base}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	entries, _ := repo.ListAudit(ctx, 2)
	if len(entries) != 2 || entries[0].Action != "reset" || entries[1].Action != "ignored" {
		t.Fatalf("expected newest two entries, got %+v", entries)
	}
}

func ids(leads []domain.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID
	}
	return out
}
