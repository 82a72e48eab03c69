package agent

import (
	"context"
	"fmt"

	"github.com/steveyegge/tagtrace/internal/types"
)

// QualityGate summarises tag health.
type QualityGate string

const (
	GateHealthy  QualityGate = "healthy"
	GateWarning  QualityGate = "warning"
	GateCritical QualityGate = "critical"
)

// StatsReport is returned by GenerateStatistics.
type StatsReport struct {
	types.Statistics
	ValidTags    int         `json:"validTags"`
	InvalidTags  int         `json:"invalidTags"`
	BrokenChains int         `json:"brokenChains"`
	HealthScore  float64     `json:"healthScore"`
	QualityGate  QualityGate `json:"qualityGate"`
}

// GenerateStatistics combines store statistics with a health score
// (valid/total x 100) and a quality gate.
func (a *Agent) GenerateStatistics(ctx context.Context) (*StatsReport, error) {
	st, err := a.store.GetStatistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	rep, err := a.ValidateTagSystem(ctx)
	if err != nil {
		return nil, err
	}
	out := &StatsReport{
		Statistics:   *st,
		ValidTags:    rep.Valid,
		InvalidTags:  len(rep.InvalidTags),
		BrokenChains: len(rep.BrokenChains),
		HealthScore:  100,
	}
	if rep.Total > 0 {
		out.HealthScore = round2(float64(rep.Valid) / float64(rep.Total) * 100)
	}
	out.QualityGate = gateFor(out.HealthScore, out.BrokenChains)
	return out, nil
}

func gateFor(score float64, broken int) QualityGate {
	switch {
	case score >= 95 && broken == 0:
		return GateHealthy
	case score >= 85:
		return GateWarning
	default:
		return GateCritical
	}
}
