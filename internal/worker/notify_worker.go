package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/metrics"
	"ductclean/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NotifyWorker delivers queued notifications out of band. Tasks are
// persisted in the notify_queue table first; redis carries the wake-up
// signal between instances, with an in-memory channel and DB polling as
// fallbacks. Exhausted tasks land in a redis dead-letter list.
type NotifyWorker struct {
	queue        domain.NotifyQueue
	email        domain.EmailSender
	sms          domain.SMSSender
	ops          domain.OpsNotifier
	redis        *redis.Client
	retryPolicy  RetryPolicy
	local        chan models.NotifyTask
	queueKey     string
	deadLetter   string
	pollInterval time.Duration
	batchSize    int
	logger       *zerolog.Logger
}

func NewNotifyWorker(queue domain.NotifyQueue, email domain.EmailSender, sms domain.SMSSender, ops domain.OpsNotifier, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, logger *zerolog.Logger) *NotifyWorker {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = models.DefaultNotifyMaxAttempts
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	return &NotifyWorker{
		queue:        queue,
		email:        email,
		sms:          sms,
		ops:          ops,
		redis:        redisClient,
		retryPolicy:  retry,
		local:        make(chan models.NotifyTask, 128),
		queueKey:     "notify:queue",
		deadLetter:   "notify:deadletter",
		pollInterval: pollInterval,
		batchSize:    20,
		logger:       logger,
	}
}

// Enqueue persists the notification and schedules it. The caller's
// transition has already committed; failures here only surface as
// warnings upstream.
func (w *NotifyWorker) Enqueue(ctx context.Context, channel, entityID string, payload interface{}) error {
	switch channel {
	case models.NotifyEmail, models.NotifySMS, models.NotifyOps:
	default:
		return fmt.Errorf("unknown notify channel: %s", channel)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.NotifyTask{
		Channel:   channel,
		EntityID:  entityID,
		Payload:   string(raw),
		Status:    models.NotifyPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := w.queue.CreateNotifyTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notify task: %w", err)
	}

	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.local <- task:
	default:
		// The DB poll loop will pick it up.
		w.logger.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left for polling")
	}
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (w *NotifyWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("notify worker started")
	defer w.logger.Info().Msg("notify worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if task, ok := w.tryLocal(); ok {
			w.processTask(ctx, &task)
			continue
		}
		if task, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &task)
			continue
		}

		tasks, err := w.queue.GetPendingNotifyTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending notify tasks")
			w.sleep(ctx)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx)
			continue
		}
		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *NotifyWorker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

func (w *NotifyWorker) tryLocal() (models.NotifyTask, bool) {
	select {
	case task := <-w.local:
		return task, true
	default:
		return models.NotifyTask{}, false
	}
}

func (w *NotifyWorker) tryRedis(ctx context.Context) (models.NotifyTask, bool) {
	if w.redis == nil {
		return models.NotifyTask{}, false
	}

	res, err := w.redis.BRPop(ctx, time.Second, w.queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			w.logger.Error().Err(err).Msg("redis BRPOP failed")
		}
		return models.NotifyTask{}, false
	}
	if len(res) != 2 {
		return models.NotifyTask{}, false
	}

	var task models.NotifyTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis notify task")
		return models.NotifyTask{}, false
	}
	return task, true
}

// ProcessOnce drains currently pending DB tasks a single time. Used by
// callers that want deterministic delivery instead of the Start loop.
func (w *NotifyWorker) ProcessOnce(ctx context.Context) error {
	tasks, err := w.queue.GetPendingNotifyTasks(ctx, w.batchSize)
	if err != nil {
		return err
	}
	for i := range tasks {
		w.processTask(ctx, &tasks[i])
	}
	return nil
}

func (w *NotifyWorker) processTask(ctx context.Context, task *models.NotifyTask) {
	if task.NextRetryAt != nil && task.NextRetryAt.After(time.Now().UTC()) {
		return
	}

	if err := w.deliver(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.queue.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notify task completed")
	}
	metrics.IncNotification(task.Channel, "delivered")
}

func (w *NotifyWorker) deliver(ctx context.Context, task *models.NotifyTask) error {
	switch task.Channel {
	case models.NotifyEmail:
		if w.email == nil {
			return errors.New("email sender not configured")
		}
		var msg domain.EmailMessage
		if err := json.Unmarshal([]byte(task.Payload), &msg); err != nil {
			return fmt.Errorf("decode email payload: %w", err)
		}
		return w.email.SendEmail(ctx, msg)
	case models.NotifySMS:
		if w.sms == nil {
			return errors.New("sms sender not configured")
		}
		var msg domain.SMSMessage
		if err := json.Unmarshal([]byte(task.Payload), &msg); err != nil {
			return fmt.Errorf("decode sms payload: %w", err)
		}
		return w.sms.SendSMS(ctx, msg)
	case models.NotifyOps:
		if w.ops == nil {
			return errors.New("ops notifier not configured")
		}
		var alert domain.OpsAlert
		if err := json.Unmarshal([]byte(task.Payload), &alert); err != nil {
			return fmt.Errorf("decode ops payload: %w", err)
		}
		return w.ops.SendAlert(ctx, alert)
	default:
		return fmt.Errorf("unknown notify channel: %s", task.Channel)
	}
}

func (w *NotifyWorker) retryOrFail(ctx context.Context, task *models.NotifyTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxAttempts {
		if err := w.queue.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyFailed, cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notify task failed")
		}
		w.pushDeadLetter(ctx, task, cause)
		metrics.IncNotification(task.Channel, "failed")
		return
	}
	metrics.IncNotification(task.Channel, "retried")

	nextRetry := time.Now().UTC().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.queue.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyRetry, cause.Error(), &nextRetry); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark notify task for retry")
	}
}

func (w *NotifyWorker) pushRedis(ctx context.Context, task models.NotifyTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.queueKey, data).Err()
}

func (w *NotifyWorker) pushDeadLetter(ctx context.Context, task *models.NotifyTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("channel", task.Channel).Msg("notify task exhausted retries")
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetter, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("push to dead letter")
	}
}
