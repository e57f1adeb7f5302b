package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerRegistersOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithPrometheusRegistry(reg), WithNamespace("test"), WithSubsystem("client"))
	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	// Touch a few metrics so they show up with values.
	m.queueLength.Set(4)
	m.entriesSynced.Add(2)
	m.drainCycles.WithLabelValues("drained").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"test_client_sync_queue_length",
		"test_client_entries_synced_total",
		"test_client_drain_cycles_total",
	} {
		if !names[want] {
			t.Errorf("missing metric family %s", want)
		}
	}
}

func TestPackageHelpersDoNotPanic(t *testing.T) {
	UpdateQueueLength(3)
	RecordEntriesSynced(2)
	RecordEntryFailed()
	RecordEntryAbandoned()
	RecordDrainCycle("skipped_offline")
	RecordDrainDuration(12.5)
	RecordReplayLatency(3.2)
	UpdateOnline(true)
	UpdateOnline(false)
	RecordStoreLatency("record_score", 1.0)
	RecordStoreError()
	RecordCacheHit()
	RecordCacheMiss()
	RecordShapedString()
	RecordReportPages(2)

	if GetRegistry() == nil {
		t.Fatal("expected non-nil registry")
	}
}
