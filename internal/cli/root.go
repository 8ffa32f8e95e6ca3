// Package cli implements rfpctl, the operator command line for the
// ingestion pipeline.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/models"
	"github.com/markdave123-py/rfpsearch/internal/services"
)

// Reprocessor re-enqueues stalled work and reports chunk progress.
type Reprocessor interface {
	ReprocessPending(ctx context.Context, opts services.ReprocessOptions) (*services.ReprocessSummary, error)
	Reingest(ctx context.Context, documentID string) (*models.EnqueueResult, error)
	Stats(ctx context.Context) (*models.ChunkStats, error)
}

// QueueInspector reports on and maintains the task queues.
type QueueInspector interface {
	Stats() ([]jobs.QueueStats, error)
	RetryArchived() (int, error)
	CleanupCompleted() (int, error)
}

var (
	reprocessService Reprocessor
	queueInspector   QueueInspector
)

var rootCmd = &cobra.Command{
	Use:           "rfpctl",
	Short:         "Operate the RFP ingestion pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetServices injects the services the commands run against.
func SetServices(r Reprocessor, q QueueInspector) {
	reprocessService = r
	queueInspector = q
}

// Execute runs the root command with reports on stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}
