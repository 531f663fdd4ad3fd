package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mvarga/netsim/internal/topo"
	"github.com/mvarga/netsim/internal/trace"
	"github.com/mvarga/netsim/ipv4"
	"github.com/mvarga/netsim/netsimcfg"
	"github.com/mvarga/netsim/netsimmetrics"
)

// errUnknownSourceHost indicates --src does not name a host in the topology.
var errUnknownSourceHost = errors.New("netsim run: unknown source host")

// errUnknownProtocol indicates --protocol is not one of udp, tcp, icmp.
var errUnknownProtocol = errors.New("netsim run: unknown protocol")

func runCmd() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
		src         string
		dst         string
		protocol    string
		payload     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a topology and replay a scripted packet exchange",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, runOptions{
				configPath:  configPath,
				metricsAddr: metricsAddr,
				src:         src,
				dst:         dst,
				protocol:    protocol,
				payload:     payload,
			})
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to topology YAML (required)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address until interrupted")
	cmd.Flags().StringVar(&src, "src", "", "name of the host originating the scripted send (required)")
	cmd.Flags().StringVar(&dst, "dst", "", "destination IPv4 address (required)")
	cmd.Flags().StringVar(&protocol, "protocol", "udp", "IPv4 payload protocol: udp, tcp, icmp")
	cmd.Flags().StringVar(&payload, "payload", "hello", "payload bytes to send, as a UTF-8 string")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("src")
	cmd.MarkFlagRequired("dst")

	return cmd
}

type runOptions struct {
	configPath  string
	metricsAddr string
	src         string
	dst         string
	protocol    string
	payload     string
}

func run(cmd *cobra.Command, opts runOptions) error {
	top, err := netsimcfg.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load topology: %w", err)
	}
	logger := newLogger(top.Log)

	reg := prometheus.NewRegistry()
	collector := netsimmetrics.NewCollector(reg)

	net, err := topo.Build(top, collector)
	if err != nil {
		return fmt.Errorf("build topology: %w", err)
	}
	trace.Attach(net, cmd.OutOrStdout())

	host, ok := net.Hosts[opts.src]
	if !ok {
		return fmt.Errorf("%q: %w", opts.src, errUnknownSourceHost)
	}
	dst, err := ipv4.ParseAddress(opts.dst)
	if err != nil {
		return fmt.Errorf("parse --dst: %w", err)
	}
	proto, err := parseProtocol(opts.protocol)
	if err != nil {
		return err
	}

	var stop func()
	if opts.metricsAddr != "" {
		stop = serveMetrics(opts.metricsAddr, reg, logger)
		defer stop()
	}

	logger.Info("sending scripted packet",
		slog.String("src", opts.src), slog.String("dst", opts.dst), slog.String("protocol", opts.protocol))
	if err := host.SendIPv4(dst, proto, []byte(opts.payload)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if opts.metricsAddr != "" {
		logger.Info("metrics server running, press ctrl+C to exit", slog.String("addr", opts.metricsAddr))
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()
	}
	return nil
}

func parseProtocol(s string) (ipv4.Protocol, error) {
	switch s {
	case "udp":
		return ipv4.ProtocolUDP, nil
	case "tcp":
		return ipv4.ProtocolTCP, nil
	case "icmp":
		return ipv4.ProtocolICMP, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, errUnknownProtocol)
	}
}

func newLogger(cfg netsimcfg.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// serveMetrics starts an HTTP server exposing reg on /metrics and returns a
// function that shuts it down.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("err", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown error", slog.Any("err", err))
		}
	}
}
