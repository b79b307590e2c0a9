// Package leads provides the lead quality bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"lead_quality_backend/internal/events"
	apphttp "lead_quality_backend/internal/http"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/internal/leads/handler"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/scoring"
	"lead_quality_backend/internal/leads/service"
	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/kvstore"
	"lead_quality_backend/platform/logger"
	"lead_quality_backend/platform/validator"
)

// ModuleConfig is the configuration the leads module reads.
type ModuleConfig interface {
	config.ScoringConfig
	config.DuplicateConfig
	config.PhoneConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
// enqueuer may be nil, in which case async scans run inline.
func NewModule(store kvstore.Store, eventBus events.Bus, val *validator.Validator, cfg ModuleConfig, log *logger.Logger, enqueuer handler.ScanEnqueuer) (*Module, error) {
	tables, err := scoring.LoadTables(cfg.GetScoringTablesPath())
	if err != nil {
		return nil, err
	}

	repo := repository.New(store)

	// Merge and status decisions are recorded through the bus so the audit
	// trail stays out of the resolution path.
	recorder := service.AuditRecorder(repo)
	eventBus.Subscribe(events.DuplicateGroupMerged{}.EventName(), recorder)
	eventBus.Subscribe(events.DuplicateGroupStatusChanged{}.EventName(), recorder)

	svc := service.New(repo, scoring.New(tables, val), eventBus, log, service.Options{
		PhoneRegion: cfg.GetPhoneDefaultRegion(),
		Thresholds: duplicates.Thresholds{
			Overall:   cfg.GetDuplicateOverallThreshold(),
			AutoMerge: cfg.GetDuplicateAutoMergeThreshold(),
		},
	})

	return &Module{
		handler: handler.New(svc, val, enqueuer),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for the scheduler and backfill commands.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads and duplicate routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All routes require authentication
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))

	scanLimit := ctx.ScanLimiter
	duplicatesGroup := ctx.Protected.Group("/duplicates")
	if scanLimit != nil {
		m.handler.RegisterDuplicateRoutes(duplicatesGroup, scanLimit.RateLimit())
		return
	}
	m.handler.RegisterDuplicateRoutes(duplicatesGroup, nil)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
