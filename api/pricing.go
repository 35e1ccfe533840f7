package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

const msgModelNotLoaded = "Model not loaded. Train first."

type (
	PricingHandler struct {
		pricingService PricingService
	}

	PricingService interface {
		Ready() bool
		Predict(payload map[string]interface{}) (float64, error)
		Retrain(ctx context.Context) model.RetrainResult
		Status() model.ModelStatus
	}

	PredictResponse struct {
		Status         string  `json:"status"`
		PredictedPrice float64 `json:"predicted_price"`
	}

	PricingHealthResponse struct {
		Status string `json:"status"`
		model.ModelStatus
	}
)

func NewPricingHandler(svc PricingService) *PricingHandler {
	return &PricingHandler{
		pricingService: svc,
	}
}

// PredictPrice answers 503 while no model is loaded, before the body is read.
func (h *PricingHandler) PredictPrice(c echo.Context) error {
	if !h.pricingService.Ready() {
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Status: statusError, Message: msgModelNotLoaded})
	}

	var payload map[string]interface{}
	decoder := json.NewDecoder(c.Request().Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, ResponseError{Status: statusError, Message: "invalid JSON body: " + err.Error()})
	}

	price, err := h.pricingService.Predict(payload)
	switch {
	case errors.Is(err, model.ErrNotReady):
		return c.JSON(http.StatusServiceUnavailable, ResponseError{Status: statusError, Message: msgModelNotLoaded})
	case err != nil:
		lgr.Logger.Warn("rejected prediction request",
			slog.String("requestID", c.Response().Header().Get(echo.HeaderXRequestID)),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusBadRequest, ResponseError{Status: statusError, Message: err.Error()})
	}

	return c.JSON(http.StatusOK, PredictResponse{Status: statusSuccess, PredictedPrice: price})
}

// Retrain reports the pipeline result verbatim with 200 in both outcomes.
func (h *PricingHandler) Retrain(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pricingService.Retrain(c.Request().Context()))
}

func (h *PricingHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, PricingHealthResponse{
		Status:      statusOK,
		ModelStatus: h.pricingService.Status(),
	})
}
