package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"ethportal.io/api/config"
	"ethportal.io/api/overlay"
	"ethportal.io/api/overlay/backends"
	"ethportal.io/api/overlay/grpcoverlay"
	"ethportal.io/api/portalrpc"
	"ethportal.io/api/primitives"

	_ "ethportal.io/api/overlay/memnet"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("portal-rpcd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "JSON config file; flags set explicitly override it")
	listen := fs.String("listen", config.DefaultListen, "JSON-RPC HTTP listen address")
	networks := fs.String("networks", "history,state", "Comma-separated sub-networks to serve")
	backend := fs.String("backend", config.DefaultBackend, "Overlay backend name")
	overlayListen := fs.String("overlay-listen", "", "Also serve the opened overlay over gRPC on this address")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	maxContent := fs.Int("max-content-bytes", config.DefaultMaxContentBytes, "Max decoded content size per call")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	backends.RegisterFlags(fs, backends.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *listBackends {
		for _, b := range backends.List(backends.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "networks":
			cfg.Networks = strings.Split(*networks, ",")
		case "backend":
			if cfg.Overlay.Backend != *backend {
				cfg.Overlay = config.OverlayConfig{Backend: *backend}
			}
		case "overlay-listen":
			cfg.OverlayListen = *overlayListen
		case "log-level":
			cfg.LogLevel = *logLevel
		case "max-content-bytes":
			cfg.MaxContentBytes = *maxContent
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(errOut, &slog.HandlerOptions{Level: level}))

	d, err := open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open overlay", slog.String("backend", cfg.Overlay.Backend), slog.String("error", err.Error()))
		return 2
	}
	defer d.close()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Error("failed to listen", slog.String("error", err.Error()))
		return 1
	}
	var overlayLis net.Listener
	if cfg.OverlayListen != "" {
		if overlayLis, err = net.Listen("tcp", cfg.OverlayListen); err != nil {
			_ = lis.Close()
			log.Error("failed to listen", slog.String("error", err.Error()))
			return 1
		}
	}

	if err := d.serve(ctx, lis, overlayLis); err != nil {
		log.Error("portal-rpcd stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

// daemon holds the opened overlay networks and the JSON-RPC handler in front of them.
type daemon struct {
	networks   map[primitives.ProtocolID]overlay.Network
	handler    *portalrpc.Handler
	maxContent int
	log        *slog.Logger
	closeFn    func() error
}

func open(ctx context.Context, cfg config.Config, log *slog.Logger) (*daemon, error) {
	protocols, err := cfg.Protocols()
	if err != nil {
		return nil, err
	}
	networks, closeFn, err := backends.Open(ctx, cfg.Overlay.Backend, backends.UsageDaemon, backends.OpenParams{
		Networks: protocols,
		Options:  cfg.Overlay.Options,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	return &daemon{
		networks: networks,
		handler: portalrpc.NewHandler(networks,
			portalrpc.WithLogger(log),
			portalrpc.WithMaxContentBytes(cfg.MaxContentBytes)),
		maxContent: cfg.MaxContentBytes,
		log:        log,
		closeFn:    closeFn,
	}, nil
}

func (d *daemon) close() {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		d.log.Warn("failed to close overlay", slog.String("error", err.Error()))
	}
}

// serve runs the JSON-RPC endpoint on lis and, when overlayLis is non-nil, the overlay gRPC
// service, until ctx is done or either server fails.
func (d *daemon) serve(ctx context.Context, lis net.Listener, overlayLis net.Listener) error {
	eg, egCtx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           portalrpc.NewHTTPHandler(d.handler),
		ErrorLog:          slog.NewLogLogger(d.log.Handler(), slog.LevelError),
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.log.Info("portal-rpcd listening", slog.String("addr", lis.Addr().String()), slog.Int("networks", len(d.networks)))
	eg.Go(func() error {
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if overlayLis != nil {
		limit := 2*d.maxContent + 64<<10
		gs := grpc.NewServer(grpc.MaxRecvMsgSize(limit), grpc.MaxSendMsgSize(limit))
		grpcoverlay.RegisterOverlayServer(gs, &grpcoverlay.Server{
			Networks:        d.networks,
			MaxContentBytes: d.maxContent,
			Logger:          d.log,
		})
		d.log.Info("overlay gRPC listening", slog.String("addr", overlayLis.Addr().String()))
		eg.Go(func() error {
			if err := gs.Serve(overlayLis); !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-egCtx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	return eg.Wait()
}
