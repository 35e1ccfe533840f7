package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/lgr"
)

const (
	msgNoImage      = "No image uploaded"
	msgInvalidImage = "Invalid image decoding"
	imageField      = "image"
)

type (
	VisionHandler struct {
		imageProcessor ImageProcessor
		slots          int
	}

	ImageProcessor interface {
		ProcessImage(buf []byte) ([]model.SlotResult, error)
	}

	ProcessImageResponse struct {
		Results []model.SlotResult `json:"results"`
	}

	VisionHealthResponse struct {
		Status string `json:"status"`
		Slots  int    `json:"slots"`
	}
)

func NewVisionHandler(processor ImageProcessor, slots int) *VisionHandler {
	return &VisionHandler{
		imageProcessor: processor,
		slots:          slots,
	}
}

// ProcessImage accepts the frame as a multipart "image" field or as the raw
// request body.
func (h *VisionHandler) ProcessImage(c echo.Context) error {
	buf, err := readImage(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, VisionError{Error: msgNoImage})
	}

	results, err := h.imageProcessor.ProcessImage(buf)
	switch {
	case errors.Is(err, model.ErrDecode):
		return c.JSON(http.StatusBadRequest, VisionError{Error: msgInvalidImage})
	case err != nil:
		lgr.Logger.Error("error processing image",
			slog.String("requestID", c.Response().Header().Get(echo.HeaderXRequestID)),
			lgr.Err(err),
		)
		return c.JSON(http.StatusInternalServerError, VisionError{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, ProcessImageResponse{Results: results})
}

func (h *VisionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, VisionHealthResponse{Status: statusOK, Slots: h.slots})
}

func readImage(c echo.Context) ([]byte, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile(imageField)
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return readNonEmpty(f)
	}

	return readNonEmpty(c.Request().Body)
}

func readNonEmpty(r io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, errors.New("empty image")
	}
	return buf, nil
}
