// Package service hosts the lead quality engine: it persists leads, keeps
// their derived scores current and drives duplicate scans and decisions.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/scoring"
	"lead_quality_backend/internal/leads/transport"
	"lead_quality_backend/platform/logger"
	"lead_quality_backend/platform/phone"
	"lead_quality_backend/platform/sanitize"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	PhoneRegion string
	Thresholds  duplicates.Thresholds
	Now         func() time.Time
}

type Service struct {
	repo   repository.LeadsRepository
	engine *scoring.Engine
	bus    events.Bus
	log    *logger.Logger
	opts   Options

	scans     singleflight.Group
	decisions sync.Mutex
}

func New(repo repository.LeadsRepository, engine *scoring.Engine, bus events.Bus, log *logger.Logger, opts Options) *Service {
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = phone.DefaultRegion
	}
	if opts.Thresholds == (duplicates.Thresholds{}) {
		opts.Thresholds = duplicates.DefaultThresholds()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, engine: engine, bus: bus, log: log, opts: opts}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *Service) CreateLead(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	now := s.now()
	lead := domain.Lead{
		ID:              uuid.NewString(),
		Email:           strings.TrimSpace(req.Email),
		FirstName:       sanitize.Text(req.FirstName),
		LastName:        sanitize.Text(req.LastName),
		Phone:           phone.NormalizeE164(req.Phone, s.opts.PhoneRegion),
		CompanyName:     sanitize.Text(req.CompanyName),
		JobTitle:        sanitize.Text(req.JobTitle),
		Industry:        strings.TrimSpace(req.Industry),
		CompanySize:     req.CompanySize,
		AnnualRevenue:   req.AnnualRevenue,
		LeadSource:      strings.TrimSpace(req.LeadSource),
		Status:          req.Status,
		Rating:          req.Rating,
		Priority:        req.Priority,
		EngagementScore: req.EngagementScore,
		ContactAttempts: req.ContactAttempts,
		LastContactDate: req.LastContactDate,
		CustomFields:    req.CustomFields,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if lead.Status == "" {
		lead.Status = domain.LeadStatusNew
	}

	result, err := s.score(&lead, now)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publishScored(ctx, result, now)
	return toLeadResponse(created), nil
}

func (s *Service) GetLead(ctx context.Context, id string) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

func (s *Service) UpdateLead(ctx context.Context, id string, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.applyUpdate(&lead, req)

	now := s.now()
	lead.UpdatedAt = now
	result, err := s.score(&lead, now)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.publishScored(ctx, result, now)
	return toLeadResponse(updated), nil
}

func (s *Service) applyUpdate(lead *domain.Lead, req transport.UpdateLeadRequest) {
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.FirstName != nil {
		lead.FirstName = sanitize.Text(*req.FirstName)
	}
	if req.LastName != nil {
		lead.LastName = sanitize.Text(*req.LastName)
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone, s.opts.PhoneRegion)
	}
	if req.CompanyName != nil {
		lead.CompanyName = sanitize.Text(*req.CompanyName)
	}
	if req.JobTitle != nil {
		lead.JobTitle = sanitize.Text(*req.JobTitle)
	}
	if req.Industry != nil {
		lead.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.CompanySize != nil {
		lead.CompanySize = *req.CompanySize
	}
	if req.AnnualRevenue != nil {
		lead.AnnualRevenue = req.AnnualRevenue
	}
	if req.LeadSource != nil {
		lead.LeadSource = strings.TrimSpace(*req.LeadSource)
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Rating != nil {
		lead.Rating = *req.Rating
	}
	if req.Priority != nil {
		lead.Priority = *req.Priority
	}
	if req.EngagementScore != nil {
		lead.EngagementScore = *req.EngagementScore
	}
	if req.ContactAttempts != nil {
		lead.ContactAttempts = *req.ContactAttempts
	}
	if req.LastContactDate.Set {
		lead.LastContactDate = req.LastContactDate.Value
	}

	// A null value removes the custom field.
	for k, v := range req.CustomFields {
		if lead.CustomFields == nil {
			lead.CustomFields = make(map[string]any)
		}
		if v == nil {
			delete(lead.CustomFields, k)
			continue
		}
		lead.CustomFields[k] = v
	}
}

// DeleteLead removes a lead and takes it out of any active duplicate group.
// A group left with a single member is dissolved so the survivor is scanned
// again.
func (s *Service) DeleteLead(ctx context.Context, id string) error {
	s.decisions.Lock()
	defer s.decisions.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.pruneGroups(ctx, id)
}

func (s *Service) ListLeads(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		Status:    req.Status,
		Rating:    req.Rating,
		Priority:  req.Priority,
		Search:    req.Search,
		MinScore:  req.MinScore,
		Offset:    (req.Page - 1) * req.PageSize,
		Limit:     req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, l := range leads {
		items = append(items, toLeadResponse(l))
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize
	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
