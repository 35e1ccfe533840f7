package webhook

import (
	"context"
	"sync"

	"github.com/khaledhikmat/ps-go/model"
)

type fakeService struct {
	mu      sync.Mutex
	name    string
	err     error
	batches [][]model.SlotResult
	posted  chan struct{}
}

// FakeService records every batch it is handed.
type FakeService interface {
	IService
	Batches() [][]model.SlotResult
	// Posted receives once per Post call.
	Posted() <-chan struct{}
}

// NewFake returns a recording sink. When err is not nil every Post fails with
// it after recording the batch.
func NewFake(name string, err error) FakeService {
	return &fakeService{
		name:   name,
		err:    err,
		posted: make(chan struct{}, 100),
	}
}

func (svc *fakeService) Name() string {
	return svc.name
}

func (svc *fakeService) Post(_ context.Context, results []model.SlotResult) error {
	svc.mu.Lock()
	svc.batches = append(svc.batches, append([]model.SlotResult(nil), results...))
	svc.mu.Unlock()

	select {
	case svc.posted <- struct{}{}:
	default:
	}
	return svc.err
}

func (svc *fakeService) Batches() [][]model.SlotResult {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([][]model.SlotResult(nil), svc.batches...)
}

func (svc *fakeService) Posted() <-chan struct{} {
	return svc.posted
}

func (svc *fakeService) Close() error {
	return nil
}
