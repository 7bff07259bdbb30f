package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zfogg/soundfp/internal/logger"
	"github.com/zfogg/soundfp/internal/metrics"
)

var metricsAddr string

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Expose ingest/query metrics over HTTP for Prometheus to scrape",
	RunE:  runServeMetrics,
}

func init() {
	serveMetricsCmd.Flags().StringVar(&metricsAddr, "addr", "", "Bind address (defaults to SOUNDFP_METRICS_ADDR, e.g. :9090)")
}

func runServeMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logger.Close()
	metrics.Initialize()

	addr := metricsAddr
	if addr == "" {
		addr = cfg.MetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Infof("serving metrics on %s", addr)
	fmt.Printf("serving metrics on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}
