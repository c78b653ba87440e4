package services_test

import (
	"context"
	"testing"

	"archivist/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithService(ctx, "youtube")
	ctx = services.WithAccountID(ctx, "UC123")
	ctx = services.WithContentID(ctx, "abc")
	ctx = services.WithWorker(ctx, 3)
	ctx = services.WithRequestID(ctx, "req-123")

	if v, ok := services.ServiceFromContext(ctx); !ok || v != "youtube" {
		t.Fatalf("unexpected service: %v %v", v, ok)
	}
	if v, ok := services.AccountIDFromContext(ctx); !ok || v != "UC123" {
		t.Fatalf("unexpected account id: %v %v", v, ok)
	}
	if v, ok := services.ContentIDFromContext(ctx); !ok || v != "abc" {
		t.Fatalf("unexpected content id: %v %v", v, ok)
	}
	if v, ok := services.WorkerFromContext(ctx); !ok || v != 3 {
		t.Fatalf("unexpected worker: %v %v", v, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithService(ctx, "")
	ctx = services.WithContentID(ctx, "")
	if _, ok := services.ServiceFromContext(ctx); ok {
		t.Fatal("expected no service value")
	}
	if _, ok := services.ContentIDFromContext(ctx); ok {
		t.Fatal("expected no content value")
	}
}
