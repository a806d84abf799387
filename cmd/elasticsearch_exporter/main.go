package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vinted/elasticsearch_exporter/pkg/config"
	"github.com/vinted/elasticsearch_exporter/pkg/exporter"
	"github.com/vinted/elasticsearch_exporter/pkg/server"
)

// exitStartupFailure is the process exit code for any fatal startup error
// or unrecovered panic.
const exitStartupFailure = 70

var flagConfigPath = pflag.String("config-file", "", "path to a YAML config file (leave blank to use defaults/flags/env only)")

func main() {
	pflag.Parse()
	os.Exit(runExporter())
}

// runExporter does the real work and returns the process exit code, so main can
// stay a single os.Exit call; this is also what lets a panic in startup
// route through the same fatal-exit path as an ordinary error.
func runExporter() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n", r)
			code = exitStartupFailure
		}
	}()

	cfg, err := config.Read(*flagConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitStartupFailure
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Bind = ":" + port
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel.ToZap())
	logCfg.Encoding = "console"
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return exitStartupFailure
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	logger.Debug("loaded config", zap.Object("cfg", cfg))

	ctx, cancelStartup := context.WithTimeout(context.Background(), cfg.ElasticsearchGlobalTimeout*3)
	exp, err := exporter.New(ctx, cfg, sugar)
	cancelStartup()
	if err != nil {
		sugar.Errorw("startup failed", "err", err)
		return exitStartupFailure
	}

	sugar.Infow("connected to cluster", "cluster", exp.Cluster, "subsystems", exp.Subsystems())

	srv := server.New(server.DefaultOptions(cfg.Bind), exp.Registry(), exp.OptionsPage, exp.ObserveHTTPRequest, sugar.Named("http"))

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	var g run.Group
	{
		// Termination handler: SIGINT/SIGTERM cancels every task together.
		term := make(chan os.Signal, 1)
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			select {
			case sig := <-term:
				sugar.Infow("received signal, shutting down", "signal", sig.String())
			case <-runCtx.Done():
			}
			return nil
		}, func(error) {
			cancelRun()
		})
	}
	for _, task := range exp.Tasks(runCtx) {
		task := task
		// A panic in any task becomes an error, so it tears the group down
		// through the same exit-70 path as a startup failure.
		g.Add(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("task panicked: %v", r)
				}
			}()
			return task()
		}, func(error) {})
	}
	{
		// HTTP server.
		g.Add(func() error {
			sugar.Infow("starting HTTP server", "bind", cfg.Bind)
			return srv.ListenAndServe()
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				sugar.Errorw("HTTP server failed to shut down gracefully", "err", err)
			}
		})
	}

	if err := g.Run(); err != nil {
		sugar.Errorw("exporter stopped with error", "err", err)
		return exitStartupFailure
	}
	return 0
}
