// internal/monitoring/monitoring_test.go
package monitoring

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/promptharvest/promptharvest/internal/utils"
)

func TestMetrics_RegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordItemScanned()
	m.RecordExtraction("generation_date", "landmark", true)
	m.RecordExtraction("prompt", "failed_all_methods", false)
	m.RecordDuplicate("finish")
	m.RecordQuality(0.85)
	m.RecordLogLoad(0.02, 100)
	m.RecordBoundaryScan()
	m.ObserveItemDuration(1.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("Expected registered metric families")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordItemScanned()
	m.RecordDuplicate("skip")
	m.RecordQuality(0.5)
}

func TestServer_Health(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(":0", reg, utils.NewTestLogger())
	s.NoteItem()
	s.NoteItem()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	s.handleHealth(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Invalid health payload: %v", err)
	}
	if status.Status != "healthy" || status.ItemsScanned != 2 {
		t.Errorf("Unexpected status %+v", status)
	}
}
