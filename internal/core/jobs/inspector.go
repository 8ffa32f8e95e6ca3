package jobs

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/logger"
)

// QueueStats is a snapshot of one queue.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Completed int    `json:"completed"`
	Processed int    `json:"processedToday"`
	Failed    int    `json:"failedToday"`
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	RunAllArchivedTasks(queue string) (int, error)
	DeleteAllCompletedTasks(queue string) (int, error)
	Close() error
}

// Inspector reports on and maintains the task queues.
type Inspector struct {
	in queueInspector
}

func NewInspector(redis asynq.RedisClientOpt) *Inspector {
	return &Inspector{in: asynq.NewInspector(redis)}
}

func (i *Inspector) Close() error {
	return i.in.Close()
}

// Stats returns one entry per known queue. Queues that have never held a
// task are reported as empty.
func (i *Inspector) Stats() ([]QueueStats, error) {
	out := make([]QueueStats, 0, len(QueueWeights))
	for _, q := range queueOrder() {
		info, err := i.in.GetQueueInfo(q)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			out = append(out, QueueStats{Queue: q})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("queue info %s: %w", q, err)
		}
		out = append(out, QueueStats{
			Queue:     q,
			Pending:   info.Pending,
			Active:    info.Active,
			Scheduled: info.Scheduled,
			Retry:     info.Retry,
			Archived:  info.Archived,
			Completed: info.Completed,
			Processed: info.Processed,
			Failed:    info.Failed,
		})
	}
	return out, nil
}

// RetryArchived moves tasks that exhausted their attempts back to pending.
func (i *Inspector) RetryArchived() (int, error) {
	return i.each("retry archived", i.in.RunAllArchivedTasks)
}

// CleanupCompleted drops retained completed tasks ahead of their retention window.
func (i *Inspector) CleanupCompleted() (int, error) {
	return i.each("delete completed", i.in.DeleteAllCompletedTasks)
}

func (i *Inspector) each(op string, fn func(string) (int, error)) (int, error) {
	total := 0
	for _, q := range queueOrder() {
		n, err := fn(q)
		if errors.Is(err, asynq.ErrQueueNotFound) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("%s %s: %w", op, q, err)
		}
		if n > 0 {
			logger.Info("%s: %d tasks in queue %s", op, n, q)
		}
		total += n
	}
	return total, nil
}

func queueOrder() []string {
	return []string{QueueCritical, QueueDefault, QueueLow}
}
