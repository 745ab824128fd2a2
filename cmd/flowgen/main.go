package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/OFFIS-RIT/flowgen/internal/cli"
	"github.com/OFFIS-RIT/flowgen/internal/config"
	"github.com/OFFIS-RIT/flowgen/internal/util"
	"github.com/OFFIS-RIT/flowgen/pkg/logger"
	"github.com/OFFIS-RIT/flowgen/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{}))
		logger.Fatal("Could not load configuration", "err", err)
	}

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  cfg.Debug,
		Format: cfg.LogFormat,
	})
	logger.Init(consoleLogger)

	err = cli.NewRootCmd(cfg).ExecuteContext(ctx)
	if err != nil {
		logger.Error("Command failed", "err", err)
	}
	stop()
	os.Exit(cli.ExitCode(err))
}
