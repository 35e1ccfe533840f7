package api

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khaledhikmat/ps-go/service/lgr"
)

// NewServer returns an echo instance with the middleware shared by both modes.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.BodyLimit("20M"))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("requestID", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				lgr.Logger.ErrorContext(c.Request().Context(), "request failed", append(attrs, lgr.Err(v.Error))...)
				return nil
			}
			lgr.Logger.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func SetupPricingRoutes(e *echo.Echo, handler *PricingHandler) {
	e.POST("/predict_price", handler.PredictPrice)
	e.POST("/retrain", handler.Retrain)
	e.GET("/health", handler.Health)
}

func SetupVisionRoutes(e *echo.Echo, handler *VisionHandler) {
	e.POST("/process_image", handler.ProcessImage)
	e.GET("/health", handler.Health)
}
