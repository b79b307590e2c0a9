package service

import (
	"context"
	"time"

	"lead_quality_backend/internal/events"
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/scoring"
	"lead_quality_backend/internal/leads/transport"

	"golang.org/x/sync/errgroup"
)

// score runs the engine and writes the derived fields onto lead.
func (s *Service) score(lead *domain.Lead, now time.Time) (scoring.Result, error) {
	result, err := s.engine.Score(*lead, now)
	if err != nil {
		return scoring.Result{}, err
	}
	result.Apply(lead)
	return result, nil
}

func (s *Service) publishScored(ctx context.Context, result scoring.Result, now time.Time) {
	s.log.LeadScored(result.LeadID, result.OverallScore, result.ConversionProbability, result.EstimatedDealValue)
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadScored{
		BaseEvent:             events.NewBaseEvent(now),
		LeadID:                result.LeadID,
		Score:                 result.OverallScore,
		ConversionProbability: result.ConversionProbability,
		EstimatedDealValue:    result.EstimatedDealValue,
	})
}

// ScoreLead recomputes a lead's score, persists the derived fields and
// returns the full explanation.
func (s *Service) ScoreLead(ctx context.Context, id string) (transport.ScoreResponse, error) {
	lead, result, err := s.rescore(ctx, id)
	if err != nil {
		return transport.ScoreResponse{}, err
	}
	return transport.ScoreResponse{Result: result, Lead: toLeadResponse(lead)}, nil
}

// RescoreLead is ScoreLead without the response mapping, for background jobs.
func (s *Service) RescoreLead(ctx context.Context, id string) error {
	_, _, err := s.rescore(ctx, id)
	return err
}

func (s *Service) rescore(ctx context.Context, id string) (domain.Lead, scoring.Result, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Lead{}, scoring.Result{}, err
	}

	now := s.now()
	result, err := s.score(&lead, now)
	if err != nil {
		return domain.Lead{}, scoring.Result{}, err
	}

	updated, err := s.repo.Update(ctx, lead)
	if err != nil {
		return domain.Lead{}, scoring.Result{}, err
	}

	s.publishScored(ctx, result, now)
	return updated, result, nil
}

// RescoreAll rescores every stored lead with at most concurrency workers.
// Failures are logged and counted; the first store error aborts the run.
func (s *Service) RescoreAll(ctx context.Context, concurrency int) (scored int, failed int, err error) {
	leads, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, 0, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]error, len(leads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.RescoreLead(gctx, lead.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	for i, rerr := range results {
		if rerr == nil {
			scored++
			continue
		}
		failed++
		s.log.StoreError("rescore", repository.KeyLeads+"/"+leads[i].ID, rerr)
	}
	return scored, failed, nil
}
