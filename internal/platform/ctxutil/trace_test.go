package ctxutil

import (
	"context"
	"testing"
)

func TestLogFields(t *testing.T) {
	if got := LogFields(context.Background()); got != nil {
		t.Fatalf("expected nil fields without trace data, got %v", got)
	}
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", RequestID: "r1"})
	got := LogFields(ctx)
	if len(got) != 4 || got[1] != "r1" || got[3] != "t1" {
		t.Fatalf("unexpected fields: %v", got)
	}
}

func TestLogFieldsWithSpan(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t1", SpanID: "s1", RequestID: "r1"})
	got := LogFields(ctx)
	if len(got) != 6 || got[4] != "span_id" || got[5] != "s1" {
		t.Fatalf("unexpected fields: %v", got)
	}
}
