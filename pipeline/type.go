package pipeline

import (
	"context"
	"time"

	"github.com/khaledhikmat/ps-go/model"
	"github.com/khaledhikmat/ps-go/service/config"
	"github.com/khaledhikmat/ps-go/service/data"
	"github.com/khaledhikmat/ps-go/service/inference"
	"github.com/khaledhikmat/ps-go/service/webhook"
)

// ServicesFactory carries the services a mode processor wires together. Modes
// fill in the members they need.
type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	InferenceSvc inference.IService
	WebhookSvc   webhook.IService
}

// SlotAlert is one processed frame's batch of slot statuses.
type SlotAlert struct {
	RequestID string
	Results   []model.SlotResult
	Timestamp time.Time
}

// Signature of alerter function
type Alerter func(canx context.Context, svcs ServicesFactory, errorStream chan interface{}) chan SlotAlert
