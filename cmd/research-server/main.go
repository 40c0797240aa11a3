// Command research-server serves deep research runs over HTTP. Each run
// streams as server-sent events; other clients may follow a run by id.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/deepresearch/bootstrap"
	"github.com/kbukum/deepresearch/config"
	"github.com/kbukum/deepresearch/internal/app"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/version"
)

const serviceName = "research-server"

func main() {
	configFile := flag.String("config", "", "path to config.yml (searched in standard locations when empty)")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "research-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg := &app.Config{}
	cfg.Name = serviceName
	cfg.Version = version.Short()
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return err
	}

	a, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	engine, err := app.NewEngine(a.Cfg, a.Logger)
	if err != nil {
		return err
	}
	if err := engine.Register(a); err != nil {
		return err
	}
	handler, err := app.RegisterServer(a, engine)
	if err != nil {
		return err
	}

	a.OnStop(func(context.Context) error {
		if n := handler.ActiveRuns(); n > 0 {
			a.Logger.Warn("stopping with runs in flight", logger.Fields("runs", n))
		}
		return nil
	})
	return a.Run(context.Background())
}
