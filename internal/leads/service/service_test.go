package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/scoring"
	"lead_quality_backend/internal/leads/transport"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/kvstore"
	"lead_quality_backend/platform/logger"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc  *Service
	repo *repository.Repository
	bus  *events.InMemoryBus
}

func newHarness(t *testing.T) harness {
	t.Helper()
	repo := repository.New(kvstore.NewMemory())
	bus := events.NewInMemoryBus(logger.Nop())
	bus.Subscribe(events.DuplicateGroupMerged{}.EventName(), AuditRecorder(repo))
	bus.Subscribe(events.DuplicateGroupStatusChanged{}.EventName(), AuditRecorder(repo))

	svc := New(repo, scoring.NewDefault(), bus, logger.Nop(), Options{
		Now: func() time.Time { return fixedNow },
	})
	return harness{svc: svc, repo: repo, bus: bus}
}

func (h harness) create(t *testing.T, req transport.CreateLeadRequest) transport.LeadResponse {
	t.Helper()
	lead, err := h.svc.CreateLead(context.Background(), req)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return lead
}

func patJones(email string) transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		Email:           email,
		FirstName:       "Pat",
		LastName:        "Jones",
		CompanyName:     "Acme",
		Phone:           "(650) 253-0000",
		Industry:        "Technology",
		LeadSource:      "Referral",
		EngagementScore: 70,
		ContactAttempts: 1,
	}
}

func TestCreateLeadScoresAndNormalizes(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var scored []events.LeadScored
	h.bus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		scored = append(scored, e.(events.LeadScored))
		return nil
	}))

	req := patJones("pat@acme.com")
	req.FirstName = "  <b>Pat</b> "
	lead := h.create(t, req)
	h.bus.Wait()

	if lead.Phone != "+16502530000" {
		t.Fatalf("expected E.164 phone, got %q", lead.Phone)
	}
	if lead.FirstName != "Pat" {
		t.Fatalf("expected sanitized first name, got %q", lead.FirstName)
	}
	if lead.Status != domain.LeadStatusNew || !lead.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected new lead stamped with clock, got %s %v", lead.Status, lead.CreatedAt)
	}

	stored, err := h.repo.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := scoring.NewDefault().Score(stored, fixedNow)
	if stored.AILeadScore != want.OverallScore || stored.AIEstimatedDealValue != want.EstimatedDealValue {
		t.Fatalf("expected persisted score %d/%d, got %d/%d", want.OverallScore, want.EstimatedDealValue, stored.AILeadScore, stored.AIEstimatedDealValue)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(scored) != 1 || scored[0].LeadID != lead.ID {
		t.Fatalf("expected one LeadScored event, got %+v", scored)
	}
}

func TestUpdateLeadRescoresAndEditsCustomFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := patJones("pat@acme.com")
	req.CustomFields = map[string]any{"budget": "$150k", "note": "keep"}
	lead := h.create(t, req)

	engagement := 5
	updated, err := h.svc.UpdateLead(ctx, lead.ID, transport.UpdateLeadRequest{
		EngagementScore: &engagement,
		CustomFields:    map[string]any{"budget": nil, "timeline": "Q1 2024"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AILeadScore == lead.AILeadScore {
		t.Fatalf("expected score to change after update, still %d", updated.AILeadScore)
	}
	if _, ok := updated.CustomFields["budget"]; ok {
		t.Fatalf("expected budget to be removed, got %v", updated.CustomFields)
	}
	if updated.CustomFields["note"] != "keep" || updated.CustomFields["timeline"] != "Q1 2024" {
		t.Fatalf("unexpected custom fields: %v", updated.CustomFields)
	}

	if _, err := h.svc.UpdateLead(ctx, "missing", transport.UpdateLeadRequest{}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScoreLeadReturnsExplanation(t *testing.T) {
	h := newHarness(t)
	lead := h.create(t, patJones("pat@acme.com"))

	res, err := h.svc.ScoreLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LeadID != lead.ID || len(res.Factors) == 0 || res.Lead.AILeadScore != res.OverallScore {
		t.Fatalf("unexpected score response: %+v", res)
	}
}

func TestScanDuplicatesLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, patJones("pat@acme.com"))
	b := h.create(t, patJones("PAT@acme.com"))
	h.create(t, transport.CreateLeadRequest{Email: "dana@initech.com", FirstName: "Dana", LastName: "Ray", CompanyName: "Initech"})

	scan, err := h.svc.ScanDuplicates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scan.Scanned != 3 || len(scan.Groups) != 1 {
		t.Fatalf("expected one group from three leads, got %+v", scan)
	}
	group := scan.Groups[0]
	if !group.Contains(a.ID) || !group.Contains(b.ID) || len(group.Members) != 2 {
		t.Fatalf("expected group of a and b, got %+v", group)
	}

	again, err := h.svc.ScanDuplicates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Scanned != 1 || len(again.Groups) != 0 {
		t.Fatalf("expected grouped leads to be skipped, got %+v", again)
	}

	ignored, err := h.svc.IgnoreGroup(ctx, group.ID, "carol")
	if err != nil || ignored.Status != domain.DuplicateStatusIgnored {
		t.Fatalf("expected ignored group, got %+v (%v)", ignored, err)
	}

	suppressed, err := h.svc.ScanDuplicates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suppressed.Suppressed != 1 || len(suppressed.Groups) != 0 {
		t.Fatalf("expected ignored pair to be suppressed, got %+v", suppressed)
	}

	reset, err := h.svc.ResetGroup(ctx, group.ID, "carol")
	if err != nil || reset.Status != domain.DuplicateStatusPending {
		t.Fatalf("expected pending group after reset, got %+v (%v)", reset, err)
	}
	if _, err := h.svc.ResetGroup(ctx, group.ID, "carol"); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state on second reset, got %v", err)
	}

	h.bus.Wait()
	audit, err := h.svc.ListAudit(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(audit.Items) != 2 {
		t.Fatalf("expected two audit entries, got %+v", audit.Items)
	}
	actions := map[string]bool{}
	for _, item := range audit.Items {
		actions[item.Action] = true
	}
	if !actions["ignored"] || !actions["reset"] {
		t.Fatalf("expected ignored and reset entries, got %+v", audit.Items)
	}
}

func TestMergeGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	primaryReq := patJones("pat@acme.com")
	primaryReq.Phone = ""
	primaryReq.CustomFields = map[string]any{"tags": []any{"vip"}}
	a := h.create(t, primaryReq)
	otherReq := patJones("pat@acme.com")
	otherReq.JobTitle = "CEO"
	otherReq.CustomFields = map[string]any{"tags": []any{"expo"}, "budget": "$80k"}
	b := h.create(t, otherReq)

	scan, err := h.svc.ScanDuplicates(ctx)
	if err != nil || len(scan.Groups) != 1 {
		t.Fatalf("expected one group, got %+v (%v)", scan, err)
	}
	groupID := scan.Groups[0].ID

	if _, err := h.svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: "stranger"}, "alice"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for foreign primary, got %v", err)
	}

	res, err := h.svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: a.ID, Reason: "same person"}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Group.Status != domain.DuplicateStatusMerged || res.Group.MergeDecision == nil {
		t.Fatalf("expected merged group with decision, got %+v", res.Group)
	}
	if res.Primary.Phone != "+16502530000" || res.Primary.JobTitle != "CEO" {
		t.Fatalf("expected phone and job title filled from duplicate, got %+v", res.Primary)
	}

	stored, err := h.repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := scoring.NewDefault().Score(stored, fixedNow)
	if stored.AILeadScore != want.OverallScore {
		t.Fatalf("expected merged primary to be rescored to %d, got %d", want.OverallScore, stored.AILeadScore)
	}
	if tags := stored.Tags(); len(tags) != 2 {
		t.Fatalf("expected union of tags, got %v", tags)
	}
	if _, err := h.repo.GetByID(ctx, b.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected duplicate to be removed, got %v", err)
	}

	if _, err := h.svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: a.ID}, "alice"); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("expected invalid state on second merge, got %v", err)
	}

	h.bus.Wait()
	audit, _ := h.svc.ListAudit(ctx, 0)
	if len(audit.Items) != 1 || audit.Items[0].Action != "merged" || audit.Items[0].PrimaryLeadID != a.ID {
		t.Fatalf("expected merge audit entry, got %+v", audit.Items)
	}
}

func TestDeleteLeadDissolvesPair(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, patJones("pat@acme.com"))
	b := h.create(t, patJones("PAT@acme.com"))

	scan, err := h.svc.ScanDuplicates(ctx)
	if err != nil || len(scan.Groups) != 1 {
		t.Fatalf("expected one group, got %+v (%v)", scan, err)
	}
	groupID := scan.Groups[0].ID

	if err := h.svc.DeleteLead(ctx, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.svc.GetGroup(ctx, groupID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected group to be dissolved, got %v", err)
	}
	if err := h.svc.DeleteLead(ctx, b.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	c := h.create(t, patJones("pat@ACME.com"))
	rescan, err := h.svc.ScanDuplicates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rescan.Scanned != 2 || len(rescan.Groups) != 1 {
		t.Fatalf("expected survivor to be regrouped, got %+v", rescan)
	}
	if g := rescan.Groups[0]; !g.Contains(a.ID) || !g.Contains(c.ID) {
		t.Fatalf("expected group of a and c, got %+v", g)
	}
}

func TestDeleteLeadPrunesLargerGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, patJones("pat@acme.com"))
	b := h.create(t, patJones("PAT@acme.com"))
	c := h.create(t, patJones("pat@ACME.com"))

	scan, err := h.svc.ScanDuplicates(ctx)
	if err != nil || len(scan.Groups) != 1 || len(scan.Groups[0].LeadIDs) != 3 {
		t.Fatalf("expected one group of three, got %+v (%v)", scan, err)
	}
	groupID := scan.Groups[0].ID

	if err := h.svc.DeleteLead(ctx, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	group, err := h.svc.GetGroup(ctx, groupID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.Contains(c.ID) || len(group.LeadIDs) != 2 || group.Status != domain.DuplicateStatusPending {
		t.Fatalf("expected pending group of a and b, got %+v", group)
	}

	res, err := h.svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: a.ID}, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.RemovedLeadIDs) != 1 || res.RemovedLeadIDs[0] != b.ID {
		t.Fatalf("expected b to be removed, got %v", res.RemovedLeadIDs)
	}
}

// flakyGroups fails SaveGroups while fail is set.
type flakyGroups struct {
	*repository.Repository
	fail bool
}

func (f *flakyGroups) SaveGroups(ctx context.Context, groups ...domain.DuplicateGroup) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.Repository.SaveGroups(ctx, groups...)
}

func TestMergeGroupKeepsMembersWhenGroupSaveFails(t *testing.T) {
	ctx := context.Background()
	repo := &flakyGroups{Repository: repository.New(kvstore.NewMemory())}
	svc := New(repo, scoring.NewDefault(), nil, logger.Nop(), Options{
		Now: func() time.Time { return fixedNow },
	})

	a, err := svc.CreateLead(ctx, patJones("pat@acme.com"))
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	b, err := svc.CreateLead(ctx, patJones("PAT@acme.com"))
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	scan, err := svc.ScanDuplicates(ctx)
	if err != nil || len(scan.Groups) != 1 {
		t.Fatalf("expected one group, got %+v (%v)", scan, err)
	}
	groupID := scan.Groups[0].ID

	repo.fail = true
	if _, err := svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: a.ID}, "alice"); err == nil {
		t.Fatal("expected merge to fail")
	}
	if _, err := repo.GetByID(ctx, b.ID); err != nil {
		t.Fatalf("expected duplicate to survive a failed merge, got %v", err)
	}
	group, err := repo.GetGroup(ctx, groupID)
	if err != nil || group.Status != domain.DuplicateStatusPending {
		t.Fatalf("expected group to stay pending, got %+v (%v)", group, err)
	}

	repo.fail = false
	res, err := svc.MergeGroup(ctx, groupID, transport.MergeGroupRequest{PrimaryLeadID: a.ID}, "alice")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if res.Group.Status != domain.DuplicateStatusMerged {
		t.Fatalf("expected merged group, got %+v", res.Group)
	}
	if _, err := repo.GetByID(ctx, b.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected duplicate to be removed, got %v", err)
	}
}

func TestReviewGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	g := domain.DuplicateGroup{ID: "g1", LeadIDs: []string{"x", "y"}, Status: domain.DuplicateStatusPending, CreatedAt: fixedNow}
	if err := h.repo.SaveGroups(ctx, g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reviewed, err := h.svc.ReviewGroup(ctx, "g1", "dave")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reviewed.Status != domain.DuplicateStatusReviewed || reviewed.ReviewedBy != "dave" {
		t.Fatalf("unexpected group: %+v", reviewed)
	}
	if len(reviewed.Members) != 0 {
		t.Fatalf("expected no member summaries for unknown leads, got %+v", reviewed.Members)
	}
	if _, err := h.svc.ReviewGroup(ctx, "nope", "dave"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	got, err := h.svc.GetSettings(ctx)
	if err != nil || got.OverallThreshold != 75 || got.AutoMergeThreshold != 95 {
		t.Fatalf("expected default thresholds, got %+v (%v)", got, err)
	}

	if _, err := h.svc.UpdateSettings(ctx, transport.UpdateSettingsRequest{OverallThreshold: 0, AutoMergeThreshold: 90}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := h.svc.UpdateSettings(ctx, transport.UpdateSettingsRequest{OverallThreshold: 40, AutoMergeThreshold: 90}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// email-only matches now group
	h.create(t, transport.CreateLeadRequest{Email: "x@y.com", FirstName: "Ann", LastName: "Lee"})
	h.create(t, transport.CreateLeadRequest{Email: "x@y.com", FirstName: "Bob", LastName: "Kim"})
	scan, err := h.svc.ScanDuplicates(ctx)
	if err != nil || len(scan.Groups) != 1 {
		t.Fatalf("expected stored thresholds to apply, got %+v (%v)", scan, err)
	}
}

func TestConcurrentScansProduceOneGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.create(t, patJones("pat@acme.com"))
	h.create(t, patJones("pat@acme.com"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.svc.ScanDuplicates(ctx); err != nil {
				t.Errorf("scan: %v", err)
			}
		}()
	}
	wg.Wait()

	groups, err := h.repo.ListGroups(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected one stored group, got %d", len(groups))
	}
}

func TestRescoreAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		h.create(t, transport.CreateLeadRequest{Email: email, FirstName: "A", LastName: "B"})
	}

	later := fixedNow.Add(40 * 24 * time.Hour)
	h.svc.opts.Now = func() time.Time { return later }

	scored, failed, err := h.svc.RescoreAll(ctx, 2)
	if err != nil || scored != 3 || failed != 0 {
		t.Fatalf("expected three rescored leads, got %d/%d (%v)", scored, failed, err)
	}

	leads, _ := h.repo.ListAll(ctx)
	for _, l := range leads {
		want, _ := scoring.NewDefault().Score(l, later)
		if l.AILeadScore != want.OverallScore {
			t.Fatalf("lead %s: expected score %d, got %d", l.ID, want.OverallScore, l.AILeadScore)
		}
	}
}
