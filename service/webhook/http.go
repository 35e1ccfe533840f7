package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
)

type httpService struct {
	URL    string
	Client *http.Client
}

// NewHTTP posts each batch as a JSON array to the parking backend.
func NewHTTP(cfgSvc config.IService) IService {
	return &httpService{
		URL:    cfgSvc.GetBackendURL(),
		Client: &http.Client{Timeout: time.Duration(cfgSvc.GetNotifierTimeout()) * time.Second},
	}
}

func (svc *httpService) Name() string {
	return "backend"
}

func (svc *httpService) Post(ctx context.Context, results []model.SlotResult) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal slot results: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := svc.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("backend returned %d: %s", res.StatusCode, bytes.TrimSpace(body))
}

func (svc *httpService) Close() error {
	svc.Client.CloseIdleConnections()
	return nil
}
