// Package intel serves supply-chain ethics reports through a read-through
// cache. Reports are derived data: every one of them can be recomputed from
// its Source, so a cache failure only costs a recomputation.
package intel

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// ReportKind names one logical report. Each kind is one cache key.
type ReportKind string

const (
	KindExecutiveSummary ReportKind = "executive-summary"
	KindSupplierRisk     ReportKind = "supplier-risk"
	KindComplianceScore  ReportKind = "compliance-score"
	KindESGMetrics       ReportKind = "esg-metrics"
	KindAuditFindings    ReportKind = "audit-findings"
)

// AllKinds lists every known report kind in display order.
var AllKinds = []ReportKind{
	KindExecutiveSummary,
	KindSupplierRisk,
	KindComplianceScore,
	KindESGMetrics,
	KindAuditFindings,
}

// Valid reports whether k is a known kind.
func (k ReportKind) Valid() bool {
	return lo.Contains(AllKinds, k)
}

// ParseKind converts a user supplied name to a ReportKind.
func ParseKind(s string) (ReportKind, error) {
	k := ReportKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Report is one generated intelligence report.
type Report struct {
	Kind        ReportKind         `json:"kind" msgpack:"kind"`
	Title       string             `json:"title" msgpack:"title"`
	GeneratedAt time.Time          `json:"generated_at" msgpack:"generated_at"`
	Metrics     map[string]float64 `json:"metrics" msgpack:"metrics"`
	Highlights  []string           `json:"highlights,omitempty" msgpack:"highlights"`
}
