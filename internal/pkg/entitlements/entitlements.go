package entitlements

import "github.com/stellaboard/stellaboard/app/models"

// Entitlements are the feature flags and the monthly Stella grant a user's
// effective plan provides. The zero value is the free/unsubscribed tier.
type Entitlements struct {
	CompetitorAnalysisAccess bool  `json:"competitor_analysis_access"`
	AIConsultantAccess       bool  `json:"ai_consultant_access"`
	DailyAutoAnalysisEnabled bool  `json:"daily_auto_analysis_enabled"`
	MonthlyGrant             int64 `json:"monthly_grant"`
}

// Free returns the unsubscribed tier: no features, no grant.
func Free() Entitlements {
	return Entitlements{}
}

// FromPlan derives the entitlements a plan grants.
func FromPlan(p *models.Plan) Entitlements {
	if p == nil {
		return Free()
	}
	return Entitlements{
		CompetitorAnalysisAccess: p.CompetitorAnalysisAccess,
		AIConsultantAccess:       p.AIConsultantAccess,
		DailyAutoAnalysisEnabled: p.DailyAutoAnalysisEnabled,
		MonthlyGrant:             p.MonthlyStellasGrant,
	}
}

// BestPlan picks the highest-tier plan among the entitling subscriptions.
// Returns nil when no subscription entitles (free tier).
func BestPlan(subs []models.Subscription) *models.Plan {
	var best *models.Plan
	for i := range subs {
		if !subs[i].IsEntitling() {
			continue
		}
		plan := &subs[i].Plan
		if best == nil || plan.Tier > best.Tier {
			best = plan
		}
	}
	return best
}
