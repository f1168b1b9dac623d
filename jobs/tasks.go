package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/events"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueLedger carries journal events emitted after commit.
	QueueLedger = "ledger"
	// TaskJournalEvent delivers a posted or reversed journal to the worker.
	TaskJournalEvent = "ledger:journal_event"
	// TaskLedgerIntegrity runs the scheduled trial balance check.
	TaskLedgerIntegrity = "ledger:integrity"
)

// NewJournalEventTask constructs an Asynq task carrying the event.
func NewJournalEventTask(event events.JournalEvent) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskJournalEvent, data), nil
}

// EventPublisher enqueues journal events for the worker. The event id is
// the task id, so a retried publish is dropped by the queue.
type EventPublisher struct {
	client *asynq.Client
}

// NewEventPublisher wraps an Asynq client.
func NewEventPublisher(client *asynq.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// Publish enqueues the event on the ledger queue.
func (p *EventPublisher) Publish(ctx context.Context, event events.JournalEvent) error {
	if p == nil || p.client == nil {
		return errors.New("jobs: event publisher not configured")
	}
	task, err := NewJournalEventTask(event)
	if err != nil {
		return err
	}
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueLedger),
		asynq.TaskID(event.ID.String()),
		asynq.MaxRetry(5),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// ReportWarmer rebuilds cached reports after the ledger changed.
type ReportWarmer interface {
	Invalidate(ctx context.Context, orgID int64) error
	WarmTrialBalance(ctx context.Context, orgID, periodID int64) error
}

// JournalEventJob consumes journal events in the worker.
type JournalEventJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewJournalEventJob wires the journal event handler.
func NewJournalEventJob(reports ReportWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *JournalEventJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalEventJob{Reports: reports, Logger: logger, Metrics: metrics}
}

// Handle invalidates the organisation's report cache and prebuilds the
// trial balance of the affected period.
func (j *JournalEventJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	var event events.JournalEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("decode journal event: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskJournalEvent)
	defer func() { err = tracker.End(err) }()

	logger := j.Logger.With(
		slog.String("kind", string(event.Kind)),
		slog.Int64("org_id", event.OrgID),
		slog.Int64("journal_id", event.JournalID),
		slog.String("number", event.Number),
	)
	if err := j.Reports.Invalidate(ctx, event.OrgID); err != nil {
		logger.Error("invalidate reports", slog.Any("error", err))
		return err
	}
	if event.PeriodID > 0 {
		if err := j.Reports.WarmTrialBalance(ctx, event.OrgID, event.PeriodID); err != nil {
			logger.Warn("warm trial balance", slog.Int64("period_id", event.PeriodID), slog.Any("error", err))
			return err
		}
	}
	logger.Info("journal event processed")
	return nil
}
