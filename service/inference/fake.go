package inference

import (
	"sync"

	"github.com/khaledhikmat/ps-go/model"
	"gocv.io/x/gocv"
)

type fakeService struct {
	mu     sync.Mutex
	script [][]model.Detection
	err    error
	calls  int
}

// FakeService replays scripted detections, one entry per Detect call.
type FakeService interface {
	IService
	Calls() int
}

// NewFake returns a service that answers the n-th Detect call with script[n],
// and with no detections once the script is exhausted.
func NewFake(script ...[]model.Detection) FakeService {
	return &fakeService{script: script}
}

// NewFailing returns a service whose Detect always fails with err.
func NewFailing(err error) FakeService {
	return &fakeService{err: err}
}

func (svc *fakeService) Detect(_ gocv.Mat) ([]model.Detection, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	call := svc.calls
	svc.calls++
	if svc.err != nil {
		return nil, svc.err
	}
	if call < len(svc.script) {
		return svc.script[call], nil
	}
	return nil, nil
}

func (svc *fakeService) Calls() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.calls
}

func (svc *fakeService) Close() error {
	return nil
}
