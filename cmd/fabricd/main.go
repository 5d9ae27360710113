// Command fabricd runs the event dispatch fabric: a local Dispatcher, the
// Connection Fabric units configured under configs_path, and the Bridge
// protocol listeners, all wired from a single TOML configuration file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/evfabric/evfabric/internal/bridge"
	"github.com/evfabric/evfabric/internal/buildinfo"
	"github.com/evfabric/evfabric/internal/config"
	"github.com/evfabric/evfabric/internal/console"
	"github.com/evfabric/evfabric/internal/dispatcher"
	"github.com/evfabric/evfabric/internal/fabric"
	"github.com/evfabric/evfabric/internal/metrics"
)

func main() {
	app := &cli.App{
		Name:  "fabricd",
		Usage: "topic-routed event dispatch fabric",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file path",
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(*cli.Context) error {
					fmt.Println(buildinfo.String())
					for k, v := range buildinfo.RuntimeInfo() {
						fmt.Printf("  %-12s %s\n", k+":", v)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cctx *cli.Context) error {
	out := console.New(os.Stdout)

	explicit := cctx.Path("config")
	if explicit == "" {
		explicit = cctx.Args().First()
	}
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		out.Errorf("config: %v", err)
		return cli.Exit(err, 1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		out.Errorf("config: %v", err)
		return cli.Exit(err, 1)
	}
	out.Infof("configuration loaded from %s", cfgPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	dispMetrics := metrics.NewDispatcher(reg)
	disp := dispatcher.New(ctx, cfg.DispatcherBuffer, dispMetrics)
	out.Infof("dispatcher ready (buffer=%d)", cfg.DispatcherBuffer)

	fabricOpts := fabric.Options{
		Advertise:    true,
		ChannelsSize: cfg.ChannelsSize,
		Log:          out,
	}
	if err := fabric.InitConnections(ctx, cfg.ConfigsPath, disp, fabricOpts); err != nil {
		out.Errorf("fabric: %v", err)
		return cli.Exit(err, 1)
	}
	out.Infof("fabric ready (units=%s)", cfg.ConfigsPath)

	if cfg.WatchConfigs {
		if err := fabric.WatchUnits(ctx, cfg.ConfigsPath, disp, fabricOpts); err != nil {
			out.Errorf("fabric: watch %s: %v", cfg.ConfigsPath, err)
			return cli.Exit(err, 1)
		}
		out.Infof("watching %s for new config units", cfg.ConfigsPath)
	}

	if err := bridge.Serve(ctx, cfg.Sockets, disp, out); err != nil {
		out.Errorf("bridge: %v", err)
		return cli.Exit(err, 1)
	}
	out.Infof("bridge ready on %v", cfg.Sockets)

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		metricsSrv = metrics.Serve(cfg.MetricsAddress, reg)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				out.Errorf("metrics: %v", err)
			}
		}()
		out.Infof("metrics ready on %s", cfg.MetricsAddress)
	}

	<-ctx.Done()
	out.Warnf("shutdown signal received, stopping")
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(context.Background())
	}
	return nil
}
