package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/dicenotation/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/dicenotation/internal/platform/grpc"
	"github.com/louisbranch/dicenotation/internal/platform/timeouts"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
)

const (
	serverName    = "dicenotation MCP"
	serverVersion = "0.1.0"

	healthMonitorInterval = 30 * time.Second
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpRollToolsModuleName     = "roll-tools"
	mcpRollResourcesModuleName = "roll-resources"
)

func newMCPRegistrationModules(client rollv1.RollServiceClient) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpRollToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerRollTools(registrar, client)
			},
		},
		{
			name: mcpRollResourcesModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerRollResources(registrar, client)
				return nil
			},
		},
	}
}

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	// GRPCAddr is the roller address; empty uses the in-network default.
	GRPCAddr  string
	Transport TransportKind
	// HTTPAddr is the listen address for TransportHTTP.
	HTTPAddr string
	// AllowedHosts extends the loopback hosts HTTP requests may name.
	AllowedHosts []string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// newServer binds every tool and resource to client. conn, when set, is
// owned by the server and closed with it.
func newServer(client rollv1.RollServiceClient, conn *grpc.ClientConn) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler: completionHandler,
	})

	for _, module := range newMCPRegistrationModules(client) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer, conn: conn}, nil
}

// completionHandler answers completion requests with no suggestions.
func completionHandler(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// Run dials the roller and serves MCP on the configured transport until ctx
// ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg.GRPCAddr, &mcp.StdioTransport{})
	case TransportHTTP:
		return runWithHTTPTransport(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// runWithTransport creates a server and serves it over the provided transport.
func runWithTransport(ctx context.Context, grpcAddr string, transport mcp.Transport) error {
	server, err := dialServer(ctx, grpcAddr)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// runWithHTTPTransport serves one MCP server to every HTTP session.
func runWithHTTPTransport(ctx context.Context, cfg Config) error {
	server, err := dialServer(ctx, cfg.GRPCAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Printf("close roller connection: %v", err)
		}
	}()

	healthCtx, healthCancel := context.WithCancel(ctx)
	defer healthCancel()
	go server.monitorHealth(healthCtx, healthMonitorInterval)

	return NewHTTPTransport(cfg.HTTPAddr, server.mcpServer, cfg.AllowedHosts).Start(ctx)
}

func dialServer(ctx context.Context, grpcAddr string) (*Server, error) {
	addr := discovery.OrDefaultGRPCAddr(grpcAddr, discovery.ServiceRoller)
	conn, err := dialRollerGRPC(ctx, addr)
	if err != nil {
		return nil, err
	}
	server, err := newServer(rollv1.NewRollServiceClient(conn), conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return server, nil
}

func dialRollerGRPC(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logf := func(format string, args ...any) {
		log.Printf("roller %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.DialWithHealth(
		ctx,
		nil,
		addr,
		rollv1.ServiceName,
		timeouts.GRPCDial,
		logf,
		platformgrpc.DefaultClientDialOptions()...,
	)
	if err != nil {
		var dialErr *platformgrpc.DialError
		if errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect {
			return nil, fmt.Errorf("connect to roller at %s: %w", addr, dialErr.Err)
		}
		return nil, err
	}
	return conn, nil
}

// monitorHealth logs roller health changes while an HTTP server is up.
// Failing checks do not stop serving; tool calls surface their own errors.
func (s *Server) monitorHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.conn == nil {
				continue
			}
			healthClient := grpc_health_v1.NewHealthClient(s.conn)
			callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
			response, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: rollv1.ServiceName})
			cancel()
			if err != nil {
				log.Printf("roller health check failed: %v", err)
			} else if response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
				log.Printf("roller health check status: %s", response.GetStatus())
			}
		}
	}
}

// Close releases the gRPC connection held by the server.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// serveWithTransport serves until the transport closes or ctx ends, then
// closes the roller connection.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close gRPC connection: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close gRPC connection: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// ParseTransport maps a label to a TransportKind.
func ParseTransport(value string) (TransportKind, error) {
	switch kind := TransportKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}
