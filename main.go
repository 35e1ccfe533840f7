package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/ps-go/mode"
	"github.com/khaledhikmat/ps-go/pipeline"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

const (
	// WARNING: this has to be bigger that the mode processor shutdown time
	waitOnShutdown = 8 * time.Second
)

var modeProcessors = map[string]mode.Processor{
	"pricing": mode.Pricing,
	"vision":  mode.Vision,
}

func main() {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		lgr.Logger.Info("loading env vars from .env file")
		err := godotenv.Load()
		if err != nil {
			lgr.Logger.Warn("no .env file loaded", slog.Any("error", xerrors.New(err.Error())))
		}
	}

	// Config service
	cfgSvc := config.NewEnv()
	lgr.Configure(cfgSvc.GetLogLevel(), cfgSvc.GetLogFile())

	modeType := "pricing"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		panic("invalid mode")
	}

	// The mode processor creates the remaining services it needs
	svcs := pipeline.ServicesFactory{
		CfgSvc: cfgSvc,
	}

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs)
	}()

	exitCode := 0

	// Wait for cancellation or mode proc
	select {
	case <-canxCtx.Done():
		lgr.Logger.Info(
			"context cancelled",
			slog.String("mode", modeType),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Error(
				"mode processor exited",
				slog.String("mode", modeType),
				slog.Any("error", xerrors.New(err.Error())),
			)
			exitCode = 1
		}
		canxFn()
		os.Exit(exitCode)
	}

	// Wait in a non-blocking way for `waitOnShutdown` for the mode processor to exit
	lgr.Logger.Info(
		"waiting for the mode processor to exit",
		slog.String("mode", modeType),
	)

	timer := time.NewTimer(waitOnShutdown)
	defer timer.Stop()

	select {
	case <-timer.C:
		lgr.Logger.Info(
			"shutdown waiting period expired. Exiting now",
			slog.Duration("period", waitOnShutdown),
		)

	case err := <-modeProcResult:
		if err != nil {
			lgr.Logger.Info(
				"mode processor exited",
				slog.Any("error", xerrors.New(err.Error())),
			)
		}
	}
}
