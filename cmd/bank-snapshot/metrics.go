package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ravenkao/bank-snapshot/internal/metrics"
	"github.com/Ravenkao/bank-snapshot/internal/metrics/datadog"
	"github.com/Ravenkao/bank-snapshot/internal/metrics/prompush"
)

const jobName = "bank-snapshot"

// setupMetrics installs the backend named by flag or METRICS_BACKEND and
// returns a function that flushes and releases it. An unknown backend name
// is a usage error; a backend that fails to start is logged and skipped.
func setupMetrics(ctx context.Context, log zerolog.Logger, backendFlag, gatewayFlag string) (func(), error) {
	backendName := backendFlag
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "", "none":
		return func() {}, nil

	case "pushgateway":
		gwURL := gatewayFlag
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: prom push backend unavailable; using nop")
			return func() {}, nil
		}
		log.Debug().Str("url", gwURL).Str("backend", backendName).Str("job", jobName).Msg("metrics enabled")
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn().Err(err).Msg("metrics: flush error")
			}
			metrics.SetBackend(nil)
		}, nil

	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    jobName,
			Tags:       datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("metrics: datadog backend unavailable; using nop")
			return func() {}, nil
		}
		log.Debug().Str("backend", backendName).Str("job", jobName).Msg("metrics enabled")
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				log.Warn().Err(err).Msg("metrics: datadog close error")
			}
			metrics.SetBackend(nil)
		}, nil

	default:
		return nil, fmt.Errorf("unknown metrics backend %q (want none, pushgateway or datadog)", backendName)
	}
}
