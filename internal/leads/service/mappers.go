package service

import (
	"lead_quality_backend/internal/leads/domain"
	"lead_quality_backend/internal/leads/duplicates"
	"lead_quality_backend/internal/leads/repository"
	"lead_quality_backend/internal/leads/transport"
)

func toLeadResponse(l domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                      l.ID,
		Email:                   l.Email,
		FirstName:               l.FirstName,
		LastName:                l.LastName,
		FullName:                l.FullName(),
		Phone:                   l.Phone,
		CompanyName:             l.CompanyName,
		JobTitle:                l.JobTitle,
		Industry:                l.Industry,
		CompanySize:             l.CompanySize,
		AnnualRevenue:           l.AnnualRevenue,
		LeadSource:              l.LeadSource,
		Status:                  l.Status,
		Rating:                  l.Rating,
		Priority:                l.Priority,
		EngagementScore:         l.EngagementScore,
		ContactAttempts:         l.ContactAttempts,
		LastContactDate:         l.LastContactDate,
		CustomFields:            l.CustomFields,
		AILeadScore:             l.AILeadScore,
		AIConversionProbability: l.AIConversionProbability,
		AIEstimatedDealValue:    l.AIEstimatedDealValue,
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}
}

func toLeadSummary(l domain.Lead) transport.LeadSummary {
	return transport.LeadSummary{
		ID:          l.ID,
		FullName:    l.FullName(),
		Email:       l.Email,
		CompanyName: l.CompanyName,
		Phone:       l.Phone,
		AILeadScore: l.AILeadScore,
	}
}

// toGroupResponse attaches member summaries for leads that still exist.
func toGroupResponse(g domain.DuplicateGroup, leads map[string]domain.Lead) transport.DuplicateGroupResponse {
	members := make([]transport.LeadSummary, 0, len(g.LeadIDs))
	for _, id := range g.LeadIDs {
		if l, ok := leads[id]; ok {
			members = append(members, toLeadSummary(l))
		}
	}
	return transport.DuplicateGroupResponse{DuplicateGroup: g, Members: members}
}

func toSettingsResponse(th duplicates.Thresholds) transport.SettingsResponse {
	return transport.SettingsResponse{
		OverallThreshold:   th.Overall,
		AutoMergeThreshold: th.AutoMerge,
	}
}

func toAuditResponse(e repository.AuditEntry) transport.AuditEntryResponse {
	return transport.AuditEntryResponse{
		GroupID:       e.GroupID,
		Action:        e.Action,
		Actor:         e.Actor,
		LeadIDs:       e.LeadIDs,
		PrimaryLeadID: e.PrimaryID,
		Reason:        e.Reason,
		Status:        e.Status,
		At:            e.At,
	}
}
