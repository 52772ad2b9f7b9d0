// Package server wires the roller runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/dicenotation/internal/notation"
	"github.com/louisbranch/dicenotation/internal/platform/config"
	grpcmeta "github.com/louisbranch/dicenotation/internal/platform/grpc/metadata"
	"github.com/louisbranch/dicenotation/internal/roller"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rolls"
	"github.com/louisbranch/dicenotation/internal/services/roller/api/grpc/rollv1"
	rollsqlite "github.com/louisbranch/dicenotation/internal/services/roller/storage/sqlite"
)

type serverEnv struct {
	DBPath string `env:"ROLLER_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnvWithPrefix(&cfg, config.EnvPrefix)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "rolls.db")
	}
	return cfg
}

// Options configure the roller server beyond its listen address.
type Options struct {
	// DBPath overrides DICENOTATION_ROLLER_DB_PATH.
	DBPath string
	// RulesPath names a YAML rule file replacing the default notation table.
	RulesPath string
	// AllowClientSeeds honors caller seeds on live rolls, not only replays.
	AllowClientSeeds bool
}

// Server hosts the roll gRPC API and the roll log.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *rollsqlite.Store
}

// New creates a configured roller server listening on the provided port.
func New(port int, opts Options) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port), opts)
}

// NewWithAddr creates a configured roller server for the provided address.
func NewWithAddr(addr string, opts Options) (*Server, error) {
	evaluator, err := newEvaluator(opts.RulesPath)
	if err != nil {
		return nil, err
	}

	dbPath := strings.TrimSpace(opts.DBPath)
	if dbPath == "" {
		dbPath = loadServerEnv().DBPath
	}
	store, err := openRollStore(dbPath)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcmeta.UnaryServerInterceptor(nil)),
	)
	apiService := rolls.NewService(store, evaluator)
	if opts.AllowClientSeeds {
		apiService.AllowClientSeeds()
	}
	healthServer := health.NewServer()
	rollv1.RegisterRollServiceServer(grpcServer, apiService)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(rollv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a roller server until context cancellation.
func Run(ctx context.Context, port int, opts Options) error {
	server, err := New(port, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("roller server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		return serveResult(<-serveErr)
	case err := <-serveErr:
		return serveResult(err)
	}
}

func serveResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases roller server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close roll store: %v", err)
		}
	}
}

func newEvaluator(rulesPath string) (*roller.Evaluator, error) {
	var opts []roller.Option
	if rulesPath = strings.TrimSpace(rulesPath); rulesPath != "" {
		table, err := notation.LoadFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("load notation rules: %w", err)
		}
		log.Printf("loaded %d notation rules from %s", table.Len(), rulesPath)
		opts = append(opts, roller.WithTable(table))
	}
	evaluator, err := roller.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build evaluator: %w", err)
	}
	return evaluator, nil
}

func openRollStore(path string) (*rollsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := rollsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roll sqlite store: %w", err)
	}
	return store, nil
}
