package jobs

import (
	"time"

	"github.com/hibiken/asynq"

	"github.com/markdave123-py/rfpsearch/internal/models"
)

// Queue names, highest weight first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

const (
	// MaxRetry gives every task three attempts in total.
	MaxRetry = 2

	IngestBackoff = 5 * time.Second
	EmbedBackoff  = 2 * time.Second
)

// QueueWeights is the asynq server queue configuration.
var QueueWeights = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// QueueFor maps a priority onto a weighted queue.
func QueueFor(p models.JobPriority) string {
	switch p {
	case models.PriorityHigh:
		return QueueCritical
	case models.PriorityLow:
		return QueueLow
	default:
		return QueueDefault
	}
}

// RetryDelay is an exponential backoff whose base depends on the task type.
// n is the number of retries so far, so the first failure gets the base delay.
func RetryDelay(n int, _ error, t *asynq.Task) time.Duration {
	base := EmbedBackoff
	if t != nil && t.Type() == TypeIngestDocument {
		base = IngestBackoff
	}
	if n < 0 {
		n = 0
	}
	if n > 16 {
		n = 16
	}
	return base << n
}
