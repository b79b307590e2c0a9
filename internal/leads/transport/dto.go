package transport

import (
	"time"

	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/scoring"
)

// Request DTOs
type CreateLeadRequest struct {
	Email           string              `json:"email" validate:"required,email,max=254"`
	FirstName       string              `json:"firstName" validate:"required,min=1,max=100"`
	LastName        string              `json:"lastName" validate:"required,min=1,max=100"`
	Phone           string              `json:"phone,omitempty" validate:"omitempty,min=5,max=32"`
	CompanyName     string              `json:"companyName,omitempty" validate:"max=200"`
	JobTitle        string              `json:"jobTitle,omitempty" validate:"max=200"`
	Industry        string              `json:"industry,omitempty" validate:"max=100"`
	CompanySize     domain.CompanySize  `json:"companySize,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	AnnualRevenue   *float64            `json:"annualRevenue,omitempty" validate:"omitempty,gte=0"`
	LeadSource      string              `json:"leadSource,omitempty" validate:"max=100"`
	Status          domain.LeadStatus   `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
	Rating          domain.LeadRating   `json:"rating,omitempty" validate:"omitempty,oneof=hot warm cold"`
	Priority        domain.LeadPriority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	EngagementScore int                 `json:"engagementScore" validate:"gte=0,lte=100"`
	ContactAttempts int                 `json:"contactAttempts" validate:"gte=0"`
	LastContactDate *time.Time          `json:"lastContactDate,omitempty"`
	CustomFields    map[string]any      `json:"customFields,omitempty"`
}

type UpdateLeadRequest struct {
	Email           *string              `json:"email,omitempty" validate:"omitempty,email,max=254"`
	FirstName       *string              `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName        *string              `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Phone           *string              `json:"phone,omitempty" validate:"omitempty,max=32"`
	CompanyName     *string              `json:"companyName,omitempty" validate:"omitempty,max=200"`
	JobTitle        *string              `json:"jobTitle,omitempty" validate:"omitempty,max=200"`
	Industry        *string              `json:"industry,omitempty" validate:"omitempty,max=100"`
	CompanySize     *domain.CompanySize  `json:"companySize,omitempty" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	AnnualRevenue   *float64             `json:"annualRevenue,omitempty" validate:"omitempty,gte=0"`
	LeadSource      *string              `json:"leadSource,omitempty" validate:"omitempty,max=100"`
	Status          *domain.LeadStatus   `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
	Rating          *domain.LeadRating   `json:"rating,omitempty" validate:"omitempty,oneof=hot warm cold"`
	Priority        *domain.LeadPriority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	EngagementScore *int                 `json:"engagementScore,omitempty" validate:"omitempty,gte=0,lte=100"`
	ContactAttempts *int                 `json:"contactAttempts,omitempty" validate:"omitempty,gte=0"`
	LastContactDate OptionalTime         `json:"lastContactDate,omitempty" validate:"-"`
	CustomFields    map[string]any       `json:"customFields,omitempty"`
}

type ListLeadsRequest struct {
	Status    *domain.LeadStatus   `form:"status" validate:"omitempty,oneof=new contacted qualified proposal negotiation closed_won closed_lost"`
	Rating    *domain.LeadRating   `form:"rating" validate:"omitempty,oneof=hot warm cold"`
	Priority  *domain.LeadPriority `form:"priority" validate:"omitempty,oneof=high medium low"`
	Search    string               `form:"search" validate:"max=100"`
	MinScore  *int                 `form:"minScore" validate:"omitempty,gte=0,lte=100"`
	Page      int                  `form:"page" validate:"omitempty,min=1"`
	PageSize  int                  `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortBy    string               `form:"sortBy" validate:"omitempty,oneof=createdAt aiLeadScore engagementScore lastName"`
	SortOrder string               `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type ListGroupsRequest struct {
	Status *domain.DuplicateStatus `form:"status" validate:"omitempty,oneof=pending reviewed merged ignored"`
}

type MergeGroupRequest struct {
	PrimaryLeadID string `json:"primaryLeadId" validate:"required"`
	Reason        string `json:"reason,omitempty" validate:"max=500"`
}

type ReviewGroupRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

type UpdateSettingsRequest struct {
	OverallThreshold   float64 `json:"overallThreshold" validate:"gt=0,lte=100"`
	AutoMergeThreshold float64 `json:"autoMergeThreshold" validate:"gt=0,lte=100"`
}

// Response DTOs
type LeadResponse struct {
	ID                      string              `json:"id"`
	Email                   string              `json:"email"`
	FirstName               string              `json:"firstName"`
	LastName                string              `json:"lastName"`
	FullName                string              `json:"fullName"`
	Phone                   string              `json:"phone,omitempty"`
	CompanyName             string              `json:"companyName,omitempty"`
	JobTitle                string              `json:"jobTitle,omitempty"`
	Industry                string              `json:"industry,omitempty"`
	CompanySize             domain.CompanySize  `json:"companySize,omitempty"`
	AnnualRevenue           *float64            `json:"annualRevenue,omitempty"`
	LeadSource              string              `json:"leadSource,omitempty"`
	Status                  domain.LeadStatus   `json:"status"`
	Rating                  domain.LeadRating   `json:"rating,omitempty"`
	Priority                domain.LeadPriority `json:"priority,omitempty"`
	EngagementScore         int                 `json:"engagementScore"`
	ContactAttempts         int                 `json:"contactAttempts"`
	LastContactDate         *time.Time          `json:"lastContactDate,omitempty"`
	CustomFields            map[string]any      `json:"customFields,omitempty"`
	AILeadScore             int                 `json:"aiLeadScore"`
	AIConversionProbability float64             `json:"aiConversionProbability"`
	AIEstimatedDealValue    int64               `json:"aiEstimatedDealValue"`
	CreatedAt               time.Time           `json:"createdAt"`
	UpdatedAt               time.Time           `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type ScoreResponse struct {
	scoring.Result
	Lead LeadResponse `json:"lead"`
}

type LeadSummary struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	CompanyName string `json:"companyName,omitempty"`
	Phone       string `json:"phone,omitempty"`
	AILeadScore int    `json:"aiLeadScore"`
}

type DuplicateGroupResponse struct {
	domain.DuplicateGroup
	Members []LeadSummary `json:"members"`
}

type DuplicateGroupListResponse struct {
	Items []DuplicateGroupResponse `json:"items"`
}

type ScanResponse struct {
	Scanned    int                      `json:"scanned"`
	Suppressed int                      `json:"suppressed"`
	Groups     []DuplicateGroupResponse `json:"groups"`
	Queued     bool                     `json:"queued,omitempty"`
	TaskID     string                   `json:"taskId,omitempty"`
}

type MergeGroupResponse struct {
	Group          domain.DuplicateGroup `json:"group"`
	Primary        LeadResponse          `json:"primary"`
	RemovedLeadIDs []string              `json:"removedLeadIds"`
}

type SettingsResponse struct {
	OverallThreshold   float64 `json:"overallThreshold"`
	AutoMergeThreshold float64 `json:"autoMergeThreshold"`
}

type AuditEntryResponse struct {
	GroupID       string                 `json:"groupId"`
	Action        string                 `json:"action"`
	Actor         string                 `json:"actor,omitempty"`
	LeadIDs       []string               `json:"leadIds"`
	PrimaryLeadID string                 `json:"primaryLeadId,omitempty"`
	Reason        string                 `json:"reason,omitempty"`
	Status        domain.DuplicateStatus `json:"status"`
	At            time.Time              `json:"at"`
}

type AuditListResponse struct {
	Items []AuditEntryResponse `json:"items"`
}
