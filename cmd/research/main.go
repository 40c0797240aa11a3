// Command research runs one deep research query from the terminal.
//
//	research "impact of solar storms on power grids"
//	research -plain "..." > report.md
//
// The interactive view follows the run with a spinner and a scrollable
// report. With -plain, or when stdout is not a terminal, text is written
// to stdout as it arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/kbukum/deepresearch/bootstrap"
	"github.com/kbukum/deepresearch/config"
	"github.com/kbukum/deepresearch/internal/app"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/version"
)

const serviceName = "research"

var errRunFailed = errors.New("research run failed")

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	plain := flag.Bool("plain", false, "write text to stdout instead of the interactive view")
	logFile := flag.String("log", "", "write logs to this file (interactive mode discards them otherwise)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: research [flags] <query>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	interactive := !*plain && isatty.IsTerminal(os.Stdout.Fd())

	err := run(query, *configFile, *logFile, interactive)
	switch {
	case errors.Is(err, errRunFailed):
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "research: %v\n", err)
		os.Exit(1)
	}
}

func run(query, configFile, logFile string, interactive bool) error {
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

	// Logs must stay off the screen the report is drawn on.
	cfg.Logging.ApplyDefaults()
	logOut, closeLog, err := logWriter(logFile, interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.NewWithWriter(&cfg.Logging, serviceName, logOut)

	a, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(log), bootstrap.WithoutSummary())
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

	return a.RunTask(context.Background(), func(ctx context.Context) error {
		stream := engine.Streamer.Stream(ctx, query)
		defer stream.Close()

		var err error
		if interactive {
			err = runInteractive(ctx, stream, query)
		} else {
			err = runPlain(ctx, os.Stdout, stream)
		}
		if err != nil {
			return err
		}
		if run := stream.Run(); run == nil || run.Err != nil {
			return errRunFailed
		}
		return nil
	})
}

func logWriter(path string, interactive bool) (io.Writer, func(), error) {
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	case interactive:
		return io.Discard, func() {}, nil
	default:
		return os.Stderr, func() {}, nil
	}
}
