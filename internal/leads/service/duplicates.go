package service

import (
	"context"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/transport"
	"lead_quality_backend/platform/apperr"
	"lead_quality_backend/platform/sanitize"
)

const scanKey = "duplicate-scan"

type scanOutcome struct {
	scanned    int
	suppressed int
	groups     []domain.DuplicateGroup
	leads      map[string]domain.Lead
}

// ScanDuplicates runs detection over every lead that is not already part of
// an active group. Concurrent callers share one scan.
func (s *Service) ScanDuplicates(ctx context.Context) (transport.ScanResponse, error) {
	v, err, _ := s.scans.Do(scanKey, func() (any, error) {
		return s.scan(context.WithoutCancel(ctx))
	})
	if err != nil {
		return transport.ScanResponse{}, err
	}

	out := v.(scanOutcome)
	groups := make([]transport.DuplicateGroupResponse, 0, len(out.groups))
	for _, g := range out.groups {
		groups = append(groups, toGroupResponse(g, out.leads))
	}
	return transport.ScanResponse{
		Scanned:    out.scanned,
		Suppressed: out.suppressed,
		Groups:     groups,
	}, nil
}

func (s *Service) scan(ctx context.Context) (scanOutcome, error) {
	started := time.Now()
	now := s.now()

	th, err := s.repo.GetSettings(ctx, s.opts.Thresholds)
	if err != nil {
		return scanOutcome{}, err
	}
	leads, err := s.repo.ListAll(ctx)
	if err != nil {
		return scanOutcome{}, err
	}
	existing, err := s.repo.ListGroups(ctx, nil)
	if err != nil {
		return scanOutcome{}, err
	}

	grouped := make(map[string]struct{})
	var ignored []domain.DuplicateGroup
	for _, g := range existing {
		switch {
		case g.Status.Active():
			for _, id := range g.LeadIDs {
				grouped[id] = struct{}{}
			}
		case g.Status == domain.DuplicateStatusIgnored:
			ignored = append(ignored, g)
		}
	}

	byID := make(map[string]domain.Lead, len(leads))
	candidates := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		byID[l.ID] = l
		if _, ok := grouped[l.ID]; ok {
			continue
		}
		candidates = append(candidates, l)
	}

	found := duplicates.Detect(candidates, th, now)
	fresh := make([]domain.DuplicateGroup, 0, len(found))
	suppressed := 0
	for _, g := range found {
		if coveredByIgnored(g, ignored) {
			suppressed++
			continue
		}
		fresh = append(fresh, g)
	}

	if err := s.repo.SaveGroups(ctx, fresh...); err != nil {
		return scanOutcome{}, err
	}

	s.log.DuplicateScan(len(candidates), len(fresh), suppressed, time.Since(started))
	if s.bus != nil {
		ids := make([]string, len(fresh))
		for i, g := range fresh {
			ids[i] = g.ID
		}
		s.bus.Publish(ctx, events.DuplicateScanCompleted{
			BaseEvent:  events.NewBaseEvent(now),
			Scanned:    len(candidates),
			GroupIDs:   ids,
			Suppressed: suppressed,
		})
	}

	return scanOutcome{scanned: len(candidates), suppressed: suppressed, groups: fresh, leads: byID}, nil
}

// coveredByIgnored reports whether every member of g sits in one ignored group.
func coveredByIgnored(g domain.DuplicateGroup, ignored []domain.DuplicateGroup) bool {
	for _, ig := range ignored {
		covered := true
		for _, id := range g.LeadIDs {
			if !ig.Contains(id) {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

func (s *Service) GetGroup(ctx context.Context, id string) (transport.DuplicateGroupResponse, error) {
	group, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return transport.DuplicateGroupResponse{}, err
	}
	leads, err := s.leadIndex(ctx)
	if err != nil {
		return transport.DuplicateGroupResponse{}, err
	}
	return toGroupResponse(group, leads), nil
}

func (s *Service) ListGroups(ctx context.Context, req transport.ListGroupsRequest) (transport.DuplicateGroupListResponse, error) {
	groups, err := s.repo.ListGroups(ctx, req.Status)
	if err != nil {
		return transport.DuplicateGroupListResponse{}, err
	}
	leads, err := s.leadIndex(ctx)
	if err != nil {
		return transport.DuplicateGroupListResponse{}, err
	}

	items := make([]transport.DuplicateGroupResponse, 0, len(groups))
	for _, g := range groups {
		items = append(items, toGroupResponse(g, leads))
	}
	return transport.DuplicateGroupListResponse{Items: items}, nil
}

// pruneGroups removes a deleted lead from every active group containing it.
func (s *Service) pruneGroups(ctx context.Context, leadID string) error {
	groups, err := s.repo.ListGroups(ctx, nil)
	if err != nil {
		return err
	}

	var affected []domain.DuplicateGroup
	for _, g := range groups {
		if g.Status.Active() && g.Contains(leadID) {
			affected = append(affected, g)
		}
	}
	if len(affected) == 0 {
		return nil
	}

	th, err := s.repo.GetSettings(ctx, s.opts.Thresholds)
	if err != nil {
		return err
	}
	leads, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, g := range affected {
		next, keep := duplicates.RemoveMember(g, leadID, leads, th, now)
		if !keep {
			if err := s.repo.DeleteGroup(ctx, g.ID); err != nil {
				return err
			}
			s.log.Info("dissolved duplicate group", "groupId", g.ID, "leadId", leadID)
			continue
		}
		if err := s.repo.SaveGroups(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) leadIndex(ctx context.Context) (map[string]domain.Lead, error) {
	leads, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Lead, len(leads))
	for _, l := range leads {
		out[l.ID] = l
	}
	return out, nil
}

// MergeGroup reconciles a group into its primary lead, rescoring the primary
// and removing the other members. A group merges at most once.
func (s *Service) MergeGroup(ctx context.Context, groupID string, req transport.MergeGroupRequest, actor string) (transport.MergeGroupResponse, error) {
	s.decisions.Lock()
	defer s.decisions.Unlock()

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return transport.MergeGroupResponse{}, err
	}
	index, err := s.leadIndex(ctx)
	if err != nil {
		return transport.MergeGroupResponse{}, err
	}

	members := make([]domain.Lead, 0, len(group.LeadIDs))
	for _, id := range group.LeadIDs {
		if l, ok := index[id]; ok {
			members = append(members, l)
		}
	}

	req.Reason = sanitize.Text(req.Reason)
	now := s.now()
	res, err := duplicates.Merge(group, req.PrimaryLeadID, members, req.Reason, actor, now)
	if err != nil {
		return transport.MergeGroupResponse{}, err
	}

	result, err := s.score(&res.Primary, now)
	if err != nil {
		return transport.MergeGroupResponse{}, err
	}

	// Members are deleted last so an active group never points at removed leads.
	if _, err := s.repo.Update(ctx, res.Primary); err != nil {
		return transport.MergeGroupResponse{}, err
	}
	if err := s.repo.SaveGroups(ctx, res.Group); err != nil {
		return transport.MergeGroupResponse{}, err
	}
	if _, err := s.repo.DeleteMany(ctx, res.RemovedLeadIDs); err != nil {
		return transport.MergeGroupResponse{}, err
	}

	s.publishScored(ctx, result, now)
	if s.bus != nil {
		s.bus.Publish(ctx, events.DuplicateGroupMerged{
			BaseEvent:      events.NewBaseEvent(now),
			GroupID:        res.Group.ID,
			PrimaryLeadID:  req.PrimaryLeadID,
			RemovedLeadIDs: res.RemovedLeadIDs,
			Actor:          actor,
			Reason:         req.Reason,
		})
	}

	return transport.MergeGroupResponse{
		Group:          res.Group,
		Primary:        toLeadResponse(res.Primary),
		RemovedLeadIDs: res.RemovedLeadIDs,
	}, nil
}

func (s *Service) IgnoreGroup(ctx context.Context, groupID, actor string) (transport.DuplicateGroupResponse, error) {
	return s.transition(ctx, groupID, actor, duplicates.Ignore)
}

func (s *Service) ResetGroup(ctx context.Context, groupID, actor string) (transport.DuplicateGroupResponse, error) {
	return s.transition(ctx, groupID, actor, duplicates.Reset)
}

func (s *Service) ReviewGroup(ctx context.Context, groupID, actor string) (transport.DuplicateGroupResponse, error) {
	return s.transition(ctx, groupID, actor, duplicates.Review)
}

type transitionFunc func(domain.DuplicateGroup, string, time.Time) (domain.DuplicateGroup, error)

func (s *Service) transition(ctx context.Context, groupID, actor string, fn transitionFunc) (transport.DuplicateGroupResponse, error) {
	s.decisions.Lock()
	defer s.decisions.Unlock()

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return transport.DuplicateGroupResponse{}, err
	}

	now := s.now()
	next, err := fn(group, actor, now)
	if err != nil {
		return transport.DuplicateGroupResponse{}, err
	}
	if err := s.repo.SaveGroups(ctx, next); err != nil {
		return transport.DuplicateGroupResponse{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.DuplicateGroupStatusChanged{
			BaseEvent: events.NewBaseEvent(now),
			GroupID:   next.ID,
			LeadIDs:   next.LeadIDs,
			From:      string(group.Status),
			To:        string(next.Status),
			Actor:     actor,
		})
	}

	leads, err := s.leadIndex(ctx)
	if err != nil {
		return transport.DuplicateGroupResponse{}, err
	}
	return toGroupResponse(next, leads), nil
}

func (s *Service) GetSettings(ctx context.Context) (transport.SettingsResponse, error) {
	th, err := s.repo.GetSettings(ctx, s.opts.Thresholds)
	if err != nil {
		return transport.SettingsResponse{}, err
	}
	return toSettingsResponse(th), nil
}

func (s *Service) UpdateSettings(ctx context.Context, req transport.UpdateSettingsRequest) (transport.SettingsResponse, error) {
	th := duplicates.Thresholds{Overall: req.OverallThreshold, AutoMerge: req.AutoMergeThreshold}
	if th.Overall <= 0 || th.Overall > 100 || th.AutoMerge <= 0 || th.AutoMerge > 100 {
		return transport.SettingsResponse{}, apperr.Validation("thresholds must be within (0, 100]").
			With("overallThreshold", th.Overall).With("autoMergeThreshold", th.AutoMerge)
	}
	if err := s.repo.PutSettings(ctx, th); err != nil {
		return transport.SettingsResponse{}, err
	}
	return toSettingsResponse(th), nil
}

func (s *Service) ListAudit(ctx context.Context, limit int) (transport.AuditListResponse, error) {
	entries, err := s.repo.ListAudit(ctx, limit)
	if err != nil {
		return transport.AuditListResponse{}, err
	}
	items := make([]transport.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toAuditResponse(e))
	}
	return transport.AuditListResponse{Items: items}, nil
}

// AuditRecorder returns an event handler that appends merge and status
// decisions to the audit log.
func AuditRecorder(audit repository.AuditLog) events.Handler {
	return events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		switch e := event.(type) {
		case events.DuplicateGroupMerged:
			return audit.AppendAudit(ctx, repository.AuditEntry{
				GroupID:   e.GroupID,
				Action:    "merged",
				Actor:     e.Actor,
				LeadIDs:   append([]string{e.PrimaryLeadID}, e.RemovedLeadIDs...),
				PrimaryID: e.PrimaryLeadID,
				Reason:    e.Reason,
				Status:    domain.DuplicateStatusMerged,
				At:        e.OccurredAt(),
			})
		case events.DuplicateGroupStatusChanged:
			return audit.AppendAudit(ctx, repository.AuditEntry{
				GroupID: e.GroupID,
				Action:  actionFor(domain.DuplicateStatus(e.From), domain.DuplicateStatus(e.To)),
				Actor:   e.Actor,
				LeadIDs: e.LeadIDs,
				Status:  domain.DuplicateStatus(e.To),
				At:      e.OccurredAt(),
			})
		default:
			return nil
		}
	})
}

func actionFor(from, to domain.DuplicateStatus) string {
	switch {
	case to == domain.DuplicateStatusIgnored:
		return "ignored"
	case from == domain.DuplicateStatusIgnored && to == domain.DuplicateStatusPending:
		return "reset"
	case to == domain.DuplicateStatusReviewed:
		return "reviewed"
	default:
		return string(to)
	}
}
