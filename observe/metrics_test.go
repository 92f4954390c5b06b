package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// TestMetrics_TotalCounterByOutcome verifies cache.op.total is split by outcome.
func TestMetrics_TotalCounterByOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := OpMeta{Bin: "default", Op: OpGet}

	m.RecordOperation(context.Background(), meta, "hit", time.Millisecond, nil)
	m.RecordOperation(context.Background(), meta, "hit", time.Millisecond, nil)
	m.RecordOperation(context.Background(), meta, "miss", time.Millisecond, nil)

	found := findMetric(collect(t, reader), "cache.op.total")
	if found == nil {
		t.Fatal("cache.op.total metric not found")
	}
	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("cache.outcome"))
		byOutcome[v.AsString()] = dp.Value
	}
	if byOutcome["hit"] != 2 || byOutcome["miss"] != 1 {
		t.Errorf("unexpected counts by outcome: %v", byOutcome)
	}
}

// TestMetrics_ErrorCounter verifies cache.op.errors only counts failures.
func TestMetrics_ErrorCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := OpMeta{Bin: "default", Op: OpSet, Backend: "redis"}

	m.RecordOperation(context.Background(), meta, "stored", time.Millisecond, nil)
	m.RecordOperation(context.Background(), meta, "error", time.Millisecond, errors.New("timeout"))

	found := findMetric(collect(t, reader), "cache.op.errors")
	if found == nil {
		t.Fatal("cache.op.errors metric not found")
	}
	sum := found.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Fatalf("expected one error, got %+v", sum.DataPoints)
	}
	if v, _ := sum.DataPoints[0].Attributes.Value("cache.backend"); v.AsString() != "redis" {
		t.Errorf("expected cache.backend=redis, got %v", v)
	}
}

// TestMetrics_DurationHistogram verifies duration is recorded in milliseconds.
func TestMetrics_DurationHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordOperation(context.Background(), OpMeta{Bin: "default", Op: OpGet}, "hit", 250*time.Millisecond, nil)

	found := findMetric(collect(t, reader), "cache.op.duration_ms")
	if found == nil {
		t.Fatal("cache.op.duration_ms metric not found")
	}
	hist, ok := found.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", found.Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected 1 data point, got %d", len(hist.DataPoints))
	}
	if hist.DataPoints[0].Sum != 250 {
		t.Errorf("expected sum 250ms, got %v", hist.DataPoints[0].Sum)
	}
}

// TestMetrics_Concurrent verifies concurrent recording is safe.
func TestMetrics_Concurrent(t *testing.T) {
	m, reader := newTestMetrics(t)
	meta := OpMeta{Bin: "default", Op: OpGet}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordOperation(context.Background(), meta, "hit", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	sum := findMetric(collect(t, reader), "cache.op.total").Data.(metricdata.Sum[int64])
	if sum.DataPoints[0].Value != 50 {
		t.Errorf("expected 50, got %d", sum.DataPoints[0].Value)
	}
}

// TestNoopMetrics verifies the no-op implementation does not panic.
func TestNoopMetrics(t *testing.T) {
	m := &noopMetrics{}
	m.RecordOperation(context.Background(), OpMeta{}, "", 0, errors.New("ignored"))
}
