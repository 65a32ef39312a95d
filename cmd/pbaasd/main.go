// Command pbaasd runs the cross-chain bridge and merge-mining coordinator
// as a standalone process: load config, start the metrics endpoint, and
// drive the submission thread until interrupted. Flag/App wiring follows
// the teacher's cmd/klay convention of a single urfave/cli.App with one
// primary Action.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/klaytn/pbaasd/config"
	"github.com/klaytn/pbaasd/coordinator"
	"github.com/klaytn/pbaasd/log"
	"github.com/klaytn/pbaasd/metrics"
	"github.com/klaytn/pbaasd/notary"
)

var logger = log.New("cmd")

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "path to pbaasd TOML configuration file",
	Value: "pbaasd.toml",
}

func main() {
	app := cli.NewApp()
	app.Name = "pbaasd"
	app.Usage = "cross-chain bridge and merge-mining coordinator"
	app.Flags = []cli.Flag{configFileFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logger.Crit("pbaasd: fatal startup error", "err", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFileFlag.Name))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prometheus.MustRegister(metrics.NewCollector("pbaasd"))
	go serveMetrics(cfg.MetricsListenAddr)

	coord := coordinator.New()

	var prober *notary.Prober
	if cfg.Role == config.RoleChild {
		rpc := notary.NewRPCClient()
		endpoint := notary.Endpoint{
			URL:      cfg.NotaryRPC.URL(),
			User:     cfg.NotaryRPC.User,
			Password: cfg.NotaryRPC.Password,
		}
		prober = notary.NewProber(rpc, endpoint, cfg.ThisChainID, 0)
	}

	peers := notary.NewPeerRegistry()
	for _, cc := range cfg.ChildChains {
		peers.Register(notary.Endpoint{URL: cc.RPC.URL(), User: cc.RPC.User, Password: cc.RPC.Password})
	}
	dispatcher := notary.NewChildDispatcher(notary.NewRPCClient(), peers)

	thread := coordinator.NewSubmissionThread(coord, cfg.Role, dispatcher, prober, nil, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("pbaasd: shutdown signal received")
		cancel()
	}()

	logger.Info("pbaasd: submission thread starting", "role", cfg.Role)
	thread.Run(ctx)
	logger.Info("pbaasd: submission thread stopped")
	return nil
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("pbaasd: metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("pbaasd: metrics endpoint stopped", "err", err)
	}
}
