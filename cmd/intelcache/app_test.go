package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportCommandHitsCache(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(),
		[]string{"intelcache", "--ttl", "1m", "report", "--kind", "supplier-risk", "--repeat", "3"})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"kind": "supplier-risk"`)
	assert.Contains(t, out.String(), "hits=2 misses=1 loads=1")
}

func TestReportCommandUnknownKind(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(),
		[]string{"intelcache", "report", "--kind", "weather"})
	assert.Error(t, err)
}

func TestDashboardCommandWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ttl: 30s\nstore:\n  kind: gocache\n"), 0o600))

	var out bytes.Buffer
	err := newApp(&out).Run(context.Background(),
		[]string{"intelcache", "--config", path, "--single-flight", "dashboard"})
	require.NoError(t, err)
	for _, k := range []string{"executive-summary", "supplier-risk", "compliance-score", "esg-metrics", "audit-findings"} {
		assert.Contains(t, out.String(), k)
	}
	assert.Contains(t, out.String(), "loads=5")
}
