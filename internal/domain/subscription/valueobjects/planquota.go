package valueobjects

import (
	"fmt"
	"slices"
	"strings"
)

// PlanQuota holds the usage limits granted by a plan.
type PlanQuota struct {
	TokensPerMonth    int64
	RequestsPerMinute int
	RequestsPerDay    int
	MaxDocuments      int
	MaxProjects       int
	MaxAgents         int
	AllowedModels     []string
}

func NewPlanQuota(tokensPerMonth int64, rpm, rpd, maxDocuments, maxProjects, maxAgents int, allowedModels []string) (PlanQuota, error) {
	if tokensPerMonth < 0 {
		return PlanQuota{}, fmt.Errorf("tokens per month cannot be negative")
	}
	if rpm < 0 || rpd < 0 {
		return PlanQuota{}, fmt.Errorf("request limits cannot be negative")
	}
	if maxDocuments < 0 || maxProjects < 0 || maxAgents < 0 {
		return PlanQuota{}, fmt.Errorf("resource limits cannot be negative")
	}

	return PlanQuota{
		TokensPerMonth:    tokensPerMonth,
		RequestsPerMinute: rpm,
		RequestsPerDay:    rpd,
		MaxDocuments:      maxDocuments,
		MaxProjects:       maxProjects,
		MaxAgents:         maxAgents,
		AllowedModels:     normalizeModels(allowedModels),
	}, nil
}

// MaxParallelRequests is half the per-minute rate, never below one.
func (q PlanQuota) MaxParallelRequests() int {
	return max(1, q.RequestsPerMinute/2)
}

// MatchesLimits reports whether an issued credential enforces exactly this quota.
func (q PlanQuota) MatchesLimits(models []string, rpm int) bool {
	if rpm != q.RequestsPerMinute {
		return false
	}
	got := normalizeModels(models)
	want := slices.Clone(q.AllowedModels)
	slices.Sort(got)
	slices.Sort(want)
	return slices.Equal(got, want)
}

func normalizeModels(models []string) []string {
	out := make([]string, 0, len(models))
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
