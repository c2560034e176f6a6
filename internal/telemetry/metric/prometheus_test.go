package metric

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/storekeep/internal/storage"
)

func TestNewPersist(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPersist(reg)

	p.ObserveSave("counter", time.Millisecond, nil)
	p.ObserveSave("counter", time.Millisecond, errors.New("boom"))
	p.SaveScheduled("counter", false)
	p.SaveScheduled("counter", true)
	p.SaveCancelled("counter")
	p.Restore("counter", RestoreRestored)
	p.Attached(1)

	if got := testutil.ToFloat64(p.SavesTotal.WithLabelValues("counter", "ok")); got != 1 {
		t.Errorf("saves ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.SavesTotal.WithLabelValues("counter", "error")); got != 1 {
		t.Errorf("saves error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.SavesScheduled.WithLabelValues("counter")); got != 2 {
		t.Errorf("scheduled = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.SavesCoalesced.WithLabelValues("counter")); got != 1 {
		t.Errorf("coalesced = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.SavesCancelled.WithLabelValues("counter")); got != 1 {
		t.Errorf("cancelled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.RestoresTotal.WithLabelValues("counter", RestoreRestored)); got != 1 {
		t.Errorf("restores = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.AttachmentsActive); got != 1 {
		t.Errorf("attachments = %v, want 1", got)
	}
}

func TestPersist_NilSafe(t *testing.T) {
	var p *Persist

	// None of these should panic
	p.ObserveSave("s", time.Second, nil)
	p.SaveScheduled("s", true)
	p.SaveCancelled("s")
	p.Restore("s", RestoreFailed)
	p.Attached(-1)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPersist(reg)
	p.Restore("counter", RestoreSkipped)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `storekeep_persist_restores_total{outcome="skipped",store="counter"} 1`) {
		t.Errorf("metrics output missing restores_total:\n%s", body)
	}
}

type fakeStats struct {
	stats *storage.Stats
	err   error
}

func (f fakeStats) Stats(context.Context) (*storage.Stats, error) {
	return f.stats, f.err
}

func TestStorageCollector(t *testing.T) {
	c := NewStorageCollector("memory", fakeStats{stats: &storage.Stats{Keys: 3, TotalSize: 120}})

	expected := `
# HELP storekeep_storage_records Records held by the backing store
# TYPE storekeep_storage_records gauge
storekeep_storage_records{engine="memory"} 3
# HELP storekeep_storage_size_bytes Approximate size of the backing store in bytes
# TYPE storekeep_storage_size_bytes gauge
storekeep_storage_size_bytes{engine="memory"} 120
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected collected metrics: %v", err)
	}
}

func TestStorageCollector_Error(t *testing.T) {
	c := NewStorageCollector("badger", fakeStats{err: errors.New("closed")})

	reg := prometheus.NewRegistry()
	reg.MustRegister(c)

	if _, err := reg.Gather(); err == nil {
		t.Error("expected gather error when stats fail")
	}
}
