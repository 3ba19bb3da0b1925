package operator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

const meterName = "github.com/carson-networks/ledger-server/internal/operator"

// OperatorDelegator starts/stops Operators (workers) and hands them items.
// The queue is unbuffered, so the worker count is the number of units of
// work that can be open at once and Process waits at most acquireTimeout
// for a free worker.
type OperatorDelegator struct {
	storage        storage.IStorage
	queue          chan ActionItem
	done           chan struct{}
	numWorkers     int
	acquireTimeout time.Duration
	log            logrus.FieldLogger
	metrics        *metrics
	wg             sync.WaitGroup
	startOnce      sync.Once
	stopOnce       sync.Once
}

func NewOperatorDelegator(s storage.IStorage, numWorkers int, acquireTimeout time.Duration, log logrus.FieldLogger) (*OperatorDelegator, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	m, err := newMetrics(otel.Meter(meterName))
	if err != nil {
		return nil, err
	}
	return &OperatorDelegator{
		storage:        s,
		queue:          make(chan ActionItem),
		done:           make(chan struct{}),
		numWorkers:     numWorkers,
		acquireTimeout: acquireTimeout,
		log:            log,
		metrics:        m,
	}, nil
}

func (d *OperatorDelegator) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.numWorkers; i++ {
			d.wg.Add(1)
			op := NewOperator(d.storage, d.queue, d.done, d.log.WithField("worker", i), d.metrics)
			go func() {
				defer d.wg.Done()
				op.Run()
			}()
		}
	})
}

// Stop lets in-flight items finish and rejects new ones.
func (d *OperatorDelegator) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.wg.Wait()
	})
}

// Process runs action on the next free worker and waits for its outcome.
// No free worker within the acquire timeout is StoreUnavailable. If ctx ends
// first the caller gets an error right away; the worker's unit of work is
// bound to the same ctx and rolls back unless it already committed.
func (d *OperatorDelegator) Process(ctx context.Context, action actions.IAction) error {
	respCh := make(chan ActionItemResponse, 1)
	item := ActionItem{
		ctx:      ctx,
		action:   action,
		response: respCh,
	}

	timer := time.NewTimer(d.acquireTimeout)
	defer timer.Stop()

	select {
	case d.queue <- item:
	case <-timer.C:
		return ledgererr.New(ledgererr.CodeStoreUnavailable, "no store capacity within %s", d.acquireTimeout)
	case <-d.done:
		return ledgererr.New(ledgererr.CodeStoreUnavailable, "operator stopped")
	case <-ctx.Done():
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, ctx.Err(), "request abandoned")
	}

	select {
	case resp := <-respCh:
		return resp.err
	case <-ctx.Done():
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, ctx.Err(), "request abandoned")
	}
}
