package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/odvcencio/remoteflow/pkg/rpc/workflowpb"
	"github.com/odvcencio/remoteflow/pkg/workflow/workflowtest"
)

// devEngineReady is called once listeners are bound; tests use it to learn
// the chosen addresses.
var devEngineReady = func(grpcAddr, adminAddr string) {}

// Pins given to workflows created by --seed.
var (
	seedInputs  = []string{"data_sources", "field"}
	seedOutputs = []string{"output", "fields_container"}
)

func runDevEngineCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dev-engine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	listen := fs.String("listen", "", "gRPC listen address (overrides engine.listen)")
	admin := fs.String("admin", "", "HTTP admin address for /healthz, /metrics, /handles (overrides engine.admin)")
	seed := fs.Int("seed", 0, "Create N workflows at startup and print their tokens")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError(err)
	}
	if *seed < 0 {
		return usageError(fmt.Errorf("--seed must not be negative"))
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(*listen); v != "" {
		cfg.Engine.Listen = v
	}
	if v := strings.TrimSpace(*admin); v != "" {
		cfg.Engine.Admin = v
	}
	if cfg.Engine.Admin != "" {
		cfg.Telemetry.MetricsEnabled = true
	}

	env, err := newCommandEnv(cfg, "dev-engine", stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	engine := workflowtest.NewEngine(
		workflowtest.WithLogger(env.logger),
		workflowtest.WithMetrics(env.metrics),
	)
	for i := 0; i < *seed; i++ {
		fmt.Fprintln(stdout, engine.Create(seedInputs, seedOutputs).GetToken())
	}

	lis, err := net.Listen("tcp", cfg.Engine.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Engine.Listen, err)
	}
	server := workflowpb.NewServer()
	engine.Register(server)

	var (
		adminLis    net.Listener
		adminServer *http.Server
		adminAddr   string
	)
	if cfg.Engine.Admin != "" {
		adminLis, err = net.Listen("tcp", cfg.Engine.Admin)
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("listen %s: %w", cfg.Engine.Admin, err)
		}
		adminAddr = adminLis.Addr().String()
		adminServer = &http.Server{
			Handler:           engine.AdminRouter(env.registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	if adminServer != nil {
		g.Go(func() error {
			if err := adminServer.Serve(adminLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve admin: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if adminServer != nil {
			_ = adminServer.Shutdown(shutdownCtx)
		}
		server.GracefulStop()
		return nil
	})

	env.logger.Info("dev engine listening",
		"grpc", lis.Addr().String(),
		"admin", adminAddr,
		"seeded", *seed,
	)
	devEngineReady(lis.Addr().String(), adminAddr)

	err = g.Wait()
	env.logger.Info("dev engine stopped", "live", len(engine.Live()))
	return err
}
