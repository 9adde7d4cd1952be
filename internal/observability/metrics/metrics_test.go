package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("plan", "featured"),
		attribute.String("job_id", "456"),
		attribute.String("result", "linked"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "plan" || attrs[1].Key != "result" {
		t.Fatalf("unexpected attributes retained: %v", attrs)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordPriceLookup(ctx, "plan", LookupResultCache)
	m.RecordCacheRefresh(ctx)
	m.RecordLinkage(ctx, "plan", LinkageResultFailed)
	m.RecordJobWrite(ctx, "create", "basic")
	m.RecordEventPublished(ctx, "job_posting.created", false)
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatal("expected noop metrics")
	}
	m.RecordPriceLookup(context.Background(), "addon", LookupResultDB)
}
