package scan

import (
	"context"
	"testing"
)

func TestImage_DisabledSkips(t *testing.T) {
	res, err := Image(context.Background(), Config{Enabled: false}, "app:dev")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if res.Status != "skipped" || res.Image != "app:dev" {
		t.Fatalf("res = %+v", res)
	}
}

func TestTallyReport(t *testing.T) {
	report := []byte(`{
	  "Results": [
	    {"Vulnerabilities": [
	      {"Severity": "CRITICAL"},
	      {"Severity": "HIGH"},
	      {"Severity": "HIGH"},
	      {"Severity": "LOW"}
	    ]},
	    {"Vulnerabilities": [{"Severity": "MEDIUM"}]},
	    {}
	  ]
	}`)

	var res Result
	if err := tallyReport(report, &res); err != nil {
		t.Fatalf("tallyReport: %v", err)
	}
	if res.Critical != 1 || res.High != 2 || res.Medium != 1 || res.Low != 1 {
		t.Fatalf("res = %+v", res)
	}
}

func TestTallyReport_Malformed(t *testing.T) {
	var res Result
	if err := tallyReport([]byte("not json"), &res); err == nil {
		t.Fatal("expected error")
	}
}

func TestBlocks(t *testing.T) {
	critical := &Result{Status: "critical"}
	warning := &Result{Status: "warning"}

	if !critical.Blocks(Config{FailOnCritical: true}) {
		t.Error("critical should block when FailOnCritical is set")
	}
	if critical.Blocks(Config{FailOnCritical: false}) {
		t.Error("critical should not block when FailOnCritical is off")
	}
	if warning.Blocks(Config{FailOnCritical: true}) {
		t.Error("warning should never block")
	}
}

func TestReportName(t *testing.T) {
	got := reportName("registry.example.com/team/app:dev")
	want := "scan-registry.example.com_team_app_dev.json"
	if got != want {
		t.Errorf("reportName = %q, want %q", got, want)
	}
}
