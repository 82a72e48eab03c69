package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/types"
)

const storageScopeName = "github.com/steveyegge/tagtrace/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in tt.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	ops      metric.Int64Counter
	dur      metric.Float64Histogram
	errs     metric.Int64Counter
	tagGauge metric.Int64Gauge
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	return newInstrumented(s)
}

func newInstrumented(s storage.Storage) *InstrumentedStorage {
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("tt.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("tt.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("tt.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	tagGauge, _ := m.Int64Gauge("tt.tag.count",
		metric.WithDescription("Current number of tags by status (snapshot from GetStatistics)"),
	)
	return &InstrumentedStorage{
		inner:    s,
		tracer:   Tracer(storageScopeName),
		ops:      ops,
		dur:      dur,
		errs:     errs,
		tagGauge: tagGauge,
	}
}

// Unwrap returns the decorated store.
func (s *InstrumentedStorage) Unwrap() storage.Storage {
	return s.inner
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Persistence ─────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) Load(ctx context.Context) error {
	ctx, span, t := s.op(ctx, "Load")
	err := s.inner.Load(ctx)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) Save(ctx context.Context) error {
	ctx, span, t := s.op(ctx, "Save")
	err := s.inner.Save(ctx)
	s.done(ctx, span, t, err)
	return err
}

// ── Tag CRUD ────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateTag(ctx context.Context, entry *types.TagEntry) (*types.TagEntry, error) {
	attrs := []attribute.KeyValue{
		attribute.String("tt.tag.id", entry.ID),
		attribute.String("tt.tag.type", string(entry.Type)),
	}
	ctx, span, t := s.op(ctx, "CreateTag", attrs...)
	v, err := s.inner.CreateTag(ctx, entry)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetTag(ctx context.Context, id string) (*types.TagEntry, error) {
	attrs := []attribute.KeyValue{attribute.String("tt.tag.id", id)}
	ctx, span, t := s.op(ctx, "GetTag", attrs...)
	v, err := s.inner.GetTag(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) UpdateTag(ctx context.Context, id string, update types.TagUpdate) (*types.TagEntry, error) {
	attrs := []attribute.KeyValue{attribute.String("tt.tag.id", id)}
	ctx, span, t := s.op(ctx, "UpdateTag", attrs...)
	v, err := s.inner.UpdateTag(ctx, id, update)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) DeleteTag(ctx context.Context, id string) (bool, error) {
	attrs := []attribute.KeyValue{attribute.String("tt.tag.id", id)}
	ctx, span, t := s.op(ctx, "DeleteTag", attrs...)
	v, err := s.inner.DeleteTag(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Queries ─────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) Search(ctx context.Context, query types.TagQuery) (*types.SearchResult, error) {
	attrs := []attribute.KeyValue{attribute.Bool("tt.query.indexed", query.IsIndexed())}
	ctx, span, t := s.op(ctx, "Search", attrs...)
	v, err := s.inner.Search(ctx, query)
	if err == nil && v != nil {
		span.SetAttributes(attribute.Int("tt.result.count", v.Total))
	}
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) AllTags(ctx context.Context) ([]*types.TagEntry, error) {
	ctx, span, t := s.op(ctx, "AllTags")
	v, err := s.inner.AllTags(ctx)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) ValidateTag(ctx context.Context, entry *types.TagEntry) (*types.ValidationResult, error) {
	attrs := []attribute.KeyValue{attribute.String("tt.tag.id", entry.ID)}
	ctx, span, t := s.op(ctx, "ValidateTag", attrs...)
	v, err := s.inner.ValidateTag(ctx, entry)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetStatistics(ctx context.Context) (*types.Statistics, error) {
	ctx, span, t := s.op(ctx, "GetStatistics")
	v, err := s.inner.GetStatistics(ctx)
	s.done(ctx, span, t, err)
	if err == nil && v != nil {
		// gauge snapshot per status
		for _, st := range types.AllStatuses {
			s.tagGauge.Record(ctx, int64(v.ByStatus[string(st)]),
				metric.WithAttributes(attribute.String("status", string(st))))
		}
	}
	return v, err
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) Path() string {
	return s.inner.Path()
}

func (s *InstrumentedStorage) Close(ctx context.Context) error {
	ctx, span, t := s.op(ctx, "Close")
	err := s.inner.Close(ctx)
	s.done(ctx, span, t, err)
	return err
}
