package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/ethiqa/go-intel-cache/intel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/urfave/cli/v3"
)

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "intelcache",
		Usage: "print supply-chain intelligence reports through the report cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "store kind: memory, gocache, lru, fastcache, disk, redis, jetcache, mysql",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "how long a report stays cached",
			},
			&cli.BoolFlag{
				Name:  "single-flight",
				Usage: "merge concurrent loads of the same report",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "report",
				Usage: "fetch one report, optionally several times",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "report kind",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "repeat",
						Usage: "number of fetches",
						Value: 1,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runReport(ctx, cmd, out)
				},
			},
			{
				Name:  "dashboard",
				Usage: "fetch every report concurrently",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runDashboard(ctx, cmd, out)
				},
			},
		},
	}
}

// loadConfig merges the config file with command line overrides.
func loadConfig(cmd *cli.Command) (*intel.Config, error) {
	cfg := &intel.Config{}
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = intel.LoadConfig(path); err != nil {
			return nil, err
		}
		log.Debugf("using config file: %s", path)
	}
	if cmd.IsSet("backend") {
		cfg.Store.Kind = cmd.String("backend")
	}
	if cmd.IsSet("ttl") {
		cfg.TTL = cmd.Duration("ttl")
	}
	if cmd.IsSet("single-flight") {
		cfg.SingleFlight = cmd.Bool("single-flight")
	}
	return cfg, nil
}

func openService(cmd *cli.Command) (*intel.Service, *cache.Metrics, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	metrics := cache.NewMetrics("intelcache", prometheus.NewRegistry())
	cfg.Metrics = metrics
	svc, err := intel.Open(intel.StaticSource{}, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %q store: %w", cfg.Store.Kind, err)
	}
	return svc, metrics, nil
}

func runReport(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	kind, err := intel.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}
	svc, metrics, err := openService(cmd)
	if err != nil {
		return err
	}

	var report *intel.Report
	for i := 0; i < int(cmd.Int("repeat")); i++ {
		start := time.Now()
		if report, err = svc.Report(ctx, kind); err != nil {
			return err
		}
		log.WithField("kind", kind).WithField("took", time.Since(start)).Debug("report fetched")
	}
	if err := writeJSON(out, report); err != nil {
		return err
	}
	return writeStats(out, metrics)
}

func runDashboard(ctx context.Context, cmd *cli.Command, out io.Writer) error {
	svc, metrics, err := openService(cmd)
	if err != nil {
		return err
	}
	reports, err := svc.Dashboard(ctx)
	if err != nil {
		return err
	}
	ordered := make([]*intel.Report, 0, len(reports))
	for _, k := range intel.AllKinds {
		ordered = append(ordered, reports[k])
	}
	if err := writeJSON(out, ordered); err != nil {
		return err
	}
	return writeStats(out, metrics)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStats(out io.Writer, m *cache.Metrics) error {
	_, err := fmt.Fprintf(out, "hits=%.0f misses=%.0f loads=%.0f\n",
		testutil.ToFloat64(m.Hits), testutil.ToFloat64(m.Misses), testutil.ToFloat64(m.Loads))
	return err
}
