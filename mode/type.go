package mode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/pipeline"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

// Processor runs one mode until the context is cancelled or the HTTP server
// fails. Services left nil in svcs are created by the mode.
type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory) error

func newDataService(ctx context.Context, cfgSvc config.IService) (data.IService, error) {
	switch store := cfgSvc.GetDataStore(); store {
	case config.DataStoreMongo:
		return data.NewMongo(ctx, cfgSvc)
	case config.DataStoreFiles:
		return data.NewFilesDB(cfgSvc), nil
	default:
		return nil, fmt.Errorf("unknown data store %q", store)
	}
}

// serve starts the echo server in the background. The returned channel
// receives the listener error, if any.
func serve(e *echo.Echo, name, port string) chan error {
	serverErr := make(chan error, 1)

	go func() {
		addr := fmt.Sprintf(":%s", port)
		lgr.Logger.Info("server starting",
			slog.String("mode", name),
			slog.String("address", addr),
		)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return serverErr
}

// shutdown drains in-flight requests for at most the mode's shutdown period.
func shutdown(e *echo.Echo, name string, cfgSvc config.IService) {
	period := time.Duration(cfgSvc.GetModeMaxShutdownTime()) * time.Second
	lgr.Logger.Info(
		"mode is waiting for in-flight requests",
		slog.String("mode", name),
		slog.Duration("period", period),
	)

	ctx, cancel := context.WithTimeout(context.Background(), period)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		lgr.Logger.Error("server shutdown error",
			slog.String("mode", name),
			lgr.Err(err),
		)
	}
}

func procError(err interface{}) {
	switch e := err.(type) {
	case model.CustomError:
		lgr.Logger.Error(
			e.Message,
			slog.String("processor", e.Processor),
			slog.Any("misc", e.Misc),
			lgr.Err(e),
		)
	case error:
		lgr.Logger.Error("background error", lgr.Err(e))
	default:
		lgr.Logger.Error(
			"unknown error type",
			slog.Any("error", err),
		)
	}
}
