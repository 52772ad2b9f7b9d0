package grpc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const rollService = "dicenotation.v1.RollService"

// healthFixture is a loopback gRPC server exposing only the health service.
type healthFixture struct {
	addr   string
	health *health.Server
}

func (f *healthFixture) set(service string, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	f.health.SetServingStatus(service, status)
}

func newHealthFixture(t *testing.T, overall grpc_health_v1.HealthCheckResponse_ServingStatus) *healthFixture {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := gogrpc.NewServer()
	fixture := &healthFixture{addr: listener.Addr().String(), health: health.NewServer()}
	grpc_health_v1.RegisterHealthServer(server, fixture.health)
	fixture.set("", overall)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		<-done
	})
	return fixture
}

func (f *healthFixture) dial(t *testing.T) *gogrpc.ClientConn {
	t.Helper()
	conn, err := gogrpc.NewClient(f.addr, gogrpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial health server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWaitForHealth(t *testing.T) {
	tests := []struct {
		name    string
		service string
		overall grpc_health_v1.HealthCheckResponse_ServingStatus
		later   func(*healthFixture)
		timeout time.Duration
		wantErr bool
	}{
		{
			name:    "serving",
			overall: grpc_health_v1.HealthCheckResponse_SERVING,
			timeout: 2 * time.Second,
		},
		{
			name:    "becomes serving",
			overall: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
			later: func(f *healthFixture) {
				f.set("", grpc_health_v1.HealthCheckResponse_SERVING)
			},
			timeout: 3 * time.Second,
		},
		{
			name:    "named service registered late",
			service: rollService,
			overall: grpc_health_v1.HealthCheckResponse_SERVING,
			later: func(f *healthFixture) {
				f.set(rollService, grpc_health_v1.HealthCheckResponse_SERVING)
			},
			timeout: 3 * time.Second,
		},
		{
			name:    "never serving",
			overall: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
			timeout: 300 * time.Millisecond,
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fixture := newHealthFixture(t, tc.overall)
			conn := fixture.dial(t)
			if tc.later != nil {
				go func() {
					time.Sleep(200 * time.Millisecond)
					tc.later(fixture)
				}()
			}

			ctx, cancel := context.WithTimeout(context.Background(), tc.timeout)
			defer cancel()
			err := WaitForHealth(ctx, conn, tc.service, nil)
			if tc.wantErr != (err != nil) {
				t.Fatalf("WaitForHealth error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestWaitForHealthLogsProgress(t *testing.T) {
	fixture := newHealthFixture(t, grpc_health_v1.HealthCheckResponse_SERVING)
	conn := fixture.dial(t)

	var lines []string
	logf := func(format string, args ...any) {
		lines = append(lines, format)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", logf); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "SERVING") {
		t.Fatalf("log lines = %q", lines)
	}
}

func TestWaitForHealthRequiresConnection(t *testing.T) {
	if err := WaitForHealth(context.Background(), nil, "", nil); err == nil {
		t.Fatal("expected error for nil connection")
	}
}
