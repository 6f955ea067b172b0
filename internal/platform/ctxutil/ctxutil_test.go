package ctxutil

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestTraceFields(t *testing.T) {
	if got := TraceFields(context.Background()); got != nil {
		t.Fatalf("expected nil fields without trace data, got %v", got)
	}

	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "abc", RequestID: "req-1"})
	want := []any{"trace_id", "abc", "request_id", "req-1"}
	if got := TraceFields(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("TraceFields = %v, want %v", got, want)
	}

	ctx = WithTraceData(context.Background(), &TraceData{RequestID: "req-2"})
	want = []any{"request_id", "req-2"}
	if got := TraceFields(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("TraceFields = %v, want %v", got, want)
	}
}

func TestRequestDataRoundTrip(t *testing.T) {
	if GetRequestData(context.Background()) != nil {
		t.Fatal("expected nil request data on empty context")
	}
	rd := &RequestData{UserID: uuid.New(), Role: "educator"}
	if got := GetRequestData(WithRequestData(context.Background(), rd)); got != rd {
		t.Fatalf("GetRequestData = %+v, want %+v", got, rd)
	}
}
