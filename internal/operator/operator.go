package operator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/ledgererr"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// failureRecordTimeout bounds the unit of work that persists a FAILED row.
const failureRecordTimeout = 5 * time.Second

// Operator is the worker that processes items from the queue.
type Operator struct {
	storage storage.IStorage
	queue   <-chan ActionItem
	done    <-chan struct{}
	log     logrus.FieldLogger
	metrics *metrics
}

func NewOperator(s storage.IStorage, queue <-chan ActionItem, done <-chan struct{}, log logrus.FieldLogger, m *metrics) *Operator {
	return &Operator{
		storage: s,
		queue:   queue,
		done:    done,
		log:     log,
		metrics: m,
	}
}

// Run listens to the queue and processes items. Exits when done is closed.
func (o *Operator) Run() {
	for {
		select {
		case item := <-o.queue:
			o.processItem(item)
		case <-o.done:
			return
		}
	}
}

func (o *Operator) processItem(item ActionItem) {
	start := time.Now()
	err := o.execute(item.ctx, item.action)
	o.metrics.observe(item.ctx, item.action.Name(), err, time.Since(start))
	item.response <- ActionItemResponse{err: err}
}

// execute runs one action in its own unit of work. On any failure the unit
// of work is rolled back; if the action had already recorded its
// transaction, the row is then persisted as FAILED on its own.
func (o *Operator) execute(ctx context.Context, action actions.IAction) error {
	if err := ctx.Err(); err != nil {
		return ledgererr.Wrap(ledgererr.CodeStoreUnavailable, err, "request abandoned before start")
	}

	writer, err := o.storage.Write(ctx)
	if err != nil {
		o.logFailure(action, err)
		return err
	}

	err = action.Perform(ctx, writer)
	if err == nil {
		err = writer.Commit(ctx)
		if err == nil {
			return nil
		}
	}

	if rbErr := writer.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		o.log.WithError(rbErr).WithField("action", action.Name()).Warn("Operator.Rollback.Error")
	}
	o.logFailure(action, err)

	if recorded, ok := action.(actions.IRecordedAction); ok {
		o.recordFailure(ctx, recorded)
	}
	return err
}

// recordFailure inserts the recorded transaction again with status FAILED.
// It runs detached from the caller's cancellation so an abandoned request
// still leaves an audit row.
func (o *Operator) recordFailure(ctx context.Context, action actions.IRecordedAction) {
	create := action.Recorded()
	if create == nil {
		return
	}

	failed := *create
	failed.Status = ledger.StatusFailed

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureRecordTimeout)
	defer cancel()

	log := o.log.WithFields(logrus.Fields{
		"action":         action.Name(),
		"transaction_id": failed.ID.String(),
	})

	writer, err := o.storage.Write(ctx)
	if err != nil {
		log.WithError(err).Error("Operator.RecordFailure.Begin")
		return
	}
	if _, err = writer.Transactions.Insert(ctx, &failed); err == nil {
		err = writer.Commit(ctx)
	}
	if err != nil {
		_ = writer.Rollback(ctx)
		log.WithError(err).Error("Operator.RecordFailure.Error")
		return
	}
	log.Info("Operator.RecordFailure.Complete")
}

func (o *Operator) logFailure(action actions.IAction, err error) {
	entry := o.log.WithError(err).WithFields(logrus.Fields{
		"action":     action.Name(),
		"error_code": ledgererr.CodeOf(err).String(),
	})
	if recorded, ok := action.(actions.IRecordedAction); ok && recorded.Recorded() != nil {
		entry = entry.WithField("transaction_id", recorded.Recorded().ID.String())
	}

	switch {
	case ledgererr.IsUnexpected(err):
		entry.Error("Operator.Action.Unexpected")
	case ledgererr.IsRetryable(err):
		entry.Warn("Operator.Action.Retryable")
	default:
		entry.Debug("Operator.Action.Rejected")
	}
}

type metrics struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	operations, err := meter.Int64Counter("ledger.operations",
		metric.WithDescription("Ledger operations by action and outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("ledger.operation.duration",
		metric.WithDescription("Time spent running a ledger operation"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &metrics{operations: operations, duration: duration}, nil
}

func (m *metrics) observe(ctx context.Context, action string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = ledgererr.CodeOf(err).String()
	}
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	)
	ctx = context.WithoutCancel(ctx)
	m.operations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
}

type ActionItemResponse struct {
	err error
}
