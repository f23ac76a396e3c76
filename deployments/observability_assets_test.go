package deployments

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGrafanaDashboardJSONIsValid(t *testing.T) {
	content := readAsset(t, "grafana", "chatdb_dashboard.json")

	var decoded struct {
		Title  string `json:"title"`
		Panels []struct {
			Title   string `json:"title"`
			Targets []struct {
				Expr string `json:"expr"`
			} `json:"targets"`
		} `json:"panels"`
	}
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		t.Fatalf("dashboard JSON parse error: %v", err)
	}
	if strings.TrimSpace(decoded.Title) == "" {
		t.Fatal("dashboard title is required")
	}
	if len(decoded.Panels) == 0 {
		t.Fatal("dashboard must include at least one panel")
	}
	for _, panel := range decoded.Panels {
		if len(panel.Targets) == 0 || strings.TrimSpace(panel.Targets[0].Expr) == "" {
			t.Fatalf("panel %q has no query", panel.Title)
		}
	}
}

func TestPrometheusRulesContainExpectedAlerts(t *testing.T) {
	text := readAsset(t, "prometheus", "chatdb_rules.yaml")

	requiredAlerts := []string{
		"ChatDBHTTPErrorRateHigh",
		"ChatDBChatFailureRatioHigh",
		"ChatDBGateRejectionsDetected",
		"ChatDBInterpretationDegraded",
		"ChatDBGenerationLatencyP95High",
		"ChatDBQueryLatencyP95High",
	}
	for _, alertName := range requiredAlerts {
		if !strings.Contains(text, "alert: "+alertName) {
			t.Fatalf("rules missing alert %q", alertName)
		}
	}
}

func TestPrometheusRecordingRulesReferenceExportedMetrics(t *testing.T) {
	text := readAsset(t, "prometheus", "chatdb_recording_rules.yaml")

	requiredRecords := []string{
		"chatdb:http_error_rate_5m",
		"chatdb:chat_failure_ratio_15m",
		"chatdb:gate_rejections_15m",
		"chatdb:interpretation_degraded_ratio_15m",
		"chatdb:generation_latency_seconds_p95",
		"chatdb:query_latency_seconds_p95",
		"chatdb:introspection_latency_seconds_p95",
	}
	for _, recordName := range requiredRecords {
		if !strings.Contains(text, "record: "+recordName) {
			t.Fatalf("recording rules missing record %q", recordName)
		}
	}

	exported := []string{
		"chatdb_http_requests_total",
		"chatdb_chat_requests_total",
		"chatdb_gate_decisions_total",
		"chatdb_interpretation_degraded_total",
		"chatdb_generation_duration_seconds_bucket",
		"chatdb_query_duration_seconds_bucket",
		"chatdb_introspection_duration_seconds_bucket",
	}
	for _, metricName := range exported {
		if !strings.Contains(text, metricName) {
			t.Fatalf("recording rules never reference %q", metricName)
		}
	}
}

func TestPrometheusScrapeExampleContainsMetricsPathAndRules(t *testing.T) {
	text := readAsset(t, "prometheus", "prometheus-scrape.example.yaml")

	for _, token := range []string{
		"metrics_path: /metrics",
		"chatdb_rules.yaml",
		"chatdb_recording_rules.yaml",
		"job_name: chatdb-api",
	} {
		if !strings.Contains(text, token) {
			t.Fatalf("scrape example missing %q", token)
		}
	}
}

func readAsset(t *testing.T, parts ...string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	path := filepath.Join(append([]string{filepath.Dir(filename), "observability"}, parts...)...)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}
