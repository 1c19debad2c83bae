package intel

import (
	"context"
	"time"
)

// Source produces a fresh report. It is called only on a cache miss.
type Source interface {
	Fetch(ctx context.Context, kind ReportKind) (*Report, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, kind ReportKind) (*Report, error)

func (f SourceFunc) Fetch(ctx context.Context, kind ReportKind) (*Report, error) {
	return f(ctx, kind)
}

// StaticSource returns fixed demo reports stamped with the current time.
type StaticSource struct {
	Now func() time.Time
}

var staticReports = map[ReportKind]Report{
	KindExecutiveSummary: {
		Title: "Executive summary",
		Metrics: map[string]float64{
			"suppliers_monitored": 1284,
			"high_risk_suppliers": 37,
			"compliance_rate":     94.2,
			"open_incidents":      12,
		},
		Highlights: []string{
			"Tier-2 textile suppliers audited ahead of schedule",
			"Two new forced-labour alerts under review",
		},
	},
	KindSupplierRisk: {
		Title: "Supplier risk",
		Metrics: map[string]float64{
			"critical": 4,
			"high":     33,
			"medium":   212,
			"low":      1035,
		},
	},
	KindComplianceScore: {
		Title: "Compliance score",
		Metrics: map[string]float64{
			"overall":       94.2,
			"labour":        91.8,
			"environmental": 95.6,
			"anti_bribery":  97.1,
		},
	},
	KindESGMetrics: {
		Title: "ESG metrics",
		Metrics: map[string]float64{
			"scope3_tco2e":         48210,
			"renewable_share":      0.41,
			"living_wage_coverage": 0.78,
		},
	},
	KindAuditFindings: {
		Title: "Audit findings",
		Metrics: map[string]float64{
			"audits_completed": 126,
			"major_findings":   9,
			"minor_findings":   58,
			"remediated":       44,
		},
		Highlights: []string{"Overtime records missing at 3 facilities"},
	},
}

func (s StaticSource) Fetch(_ context.Context, kind ReportKind) (*Report, error) {
	tpl, ok := staticReports[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	r := tpl
	r.Kind = kind
	r.GeneratedAt = now()
	r.Metrics = make(map[string]float64, len(tpl.Metrics))
	for k, v := range tpl.Metrics {
		r.Metrics[k] = v
	}
	r.Highlights = append([]string(nil), tpl.Highlights...)
	return &r, nil
}
