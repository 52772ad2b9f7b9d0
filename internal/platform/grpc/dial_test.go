package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	grpcmeta "github.com/louisbranch/dicenotation/internal/platform/grpc/metadata"
)

func TestDialWithHealthSuccess(t *testing.T) {
	addr := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_SERVING).addr

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := DialWithHealth(ctx, nil, addr, "", time.Second, nil, DefaultClientDialOptions()...)
	if err != nil {
		t.Fatalf("dial with health: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}
}

func TestDialWithHealthChecksNamedService(t *testing.T) {
	addr := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_SERVING).addr

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Only "" is registered, so a named service never serves.
	_, err := DialWithHealth(ctx, nil, addr, rollService, time.Second, nil, DefaultClientDialOptions()...)
	var dialErr *DialError
	if !errors.As(err, &dialErr) || dialErr.Stage != DialStageHealth {
		t.Fatalf("expected health stage error, got %v", err)
	}
}

func TestDialWithHealthUsesDialTimeoutForHealth(t *testing.T) {
	addr := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING).addr

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	conn, err := DialWithHealth(ctx, nil, addr, "", 150*time.Millisecond, nil, DefaultClientDialOptions()...)
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected error")
	}
	if conn != nil {
		t.Fatal("expected nil connection on error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected dial timeout to bound health check, took %v", elapsed)
	}
}

func TestDialWithHealthConnectStage(t *testing.T) {
	dialer := DialerFunc(func(string, ...gogrpc.DialOption) (*gogrpc.ClientConn, error) {
		return nil, fmt.Errorf("dial failure")
	})

	_, err := DialWithHealth(context.Background(), dialer, "roller:8092", "", time.Second, nil)
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T", err)
	}
	if dialErr.Stage != DialStageConnect {
		t.Fatalf("stage = %q, want %q", dialErr.Stage, DialStageConnect)
	}
	if !strings.Contains(err.Error(), "roller:8092") {
		t.Fatalf("error %q does not name the address", err)
	}
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Stage: DialStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *DialError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}

func TestCorrelationUnaryClientInterceptor(t *testing.T) {
	interceptor := CorrelationUnaryClientInterceptor()

	var got metadata.MD
	invoker := func(ctx context.Context, _ string, _, _ any, _ *gogrpc.ClientConn, _ ...gogrpc.CallOption) error {
		got, _ = metadata.FromOutgoingContext(ctx)
		return nil
	}

	ctx := grpcmeta.WithRequestID(context.Background(), "req-1")
	ctx = grpcmeta.WithInvocationID(ctx, "inv-1")
	if err := interceptor(ctx, "/m", nil, nil, nil, invoker); err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if v := got.Get(grpcmeta.RequestIDHeader); len(v) != 1 || v[0] != "req-1" {
		t.Fatalf("request id = %v", v)
	}
	if v := got.Get(grpcmeta.InvocationIDHeader); len(v) != 1 || v[0] != "inv-1" {
		t.Fatalf("invocation id = %v", v)
	}

	ctx = metadata.AppendToOutgoingContext(ctx, grpcmeta.RequestIDHeader, "explicit")
	if err := interceptor(ctx, "/m", nil, nil, nil, invoker); err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if v := got.Get(grpcmeta.RequestIDHeader); len(v) != 1 || v[0] != "explicit" {
		t.Fatalf("explicit request id overwritten: %v", v)
	}
}
