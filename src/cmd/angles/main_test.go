package main

import (
	"net/http"
	"testing"

	"angles-reporter/src/broker"
	"angles-reporter/src/config"
	"angles-reporter/src/logger"
	"angles-reporter/src/metrics"
	"angles-reporter/src/pipeline"
)

func TestTeardown_ReleasesResources(t *testing.T) {
	log = logger.NewSilentLogger()

	srv, addr, err := serveMetrics("127.0.0.1:0", metrics.NewCollector())
	if err != nil {
		t.Fatalf("serveMetrics() error = %v", err)
	}
	metricsServer = srv

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", resp.StatusCode)
	}

	cfg := config.Default()
	brk := broker.NewInMemoryBroker()
	defer brk.Close()
	appPipeline, err = pipeline.Build(&cfg, pipeline.Options{Broker: brk}, log)
	if err != nil {
		t.Fatalf("pipeline.Build() error = %v", err)
	}

	teardown()

	if metricsServer != nil || appPipeline != nil {
		t.Error("teardown() should clear the metrics server and pipeline")
	}
	if _, err := http.Get("http://" + addr + "/metrics"); err == nil {
		t.Error("metrics server still answering after teardown()")
	}

	// Nothing left to release
	teardown()
}

func TestServeMetrics_BadAddress(t *testing.T) {
	log = logger.NewSilentLogger()
	if _, _, err := serveMetrics("256.0.0.1:bad", metrics.NewCollector()); err == nil {
		t.Error("serveMetrics() should fail for an unusable address")
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := map[string]bool{"junit": false, "teams": false, "environments": false, "mcp": false, "tail": false, "build": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("root command missing %q", name)
		}
	}
}
