package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show embedding progress and queue sizes",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

type statsOutput struct {
	Chunks *models.ChunkStats `json:"chunks"`
	Queues []jobs.QueueStats  `json:"queues,omitempty"`
}

func runStats(cmd *cobra.Command, _ []string) error {
	if reprocessService == nil {
		return errors.New("reprocess service not configured")
	}
	chunks, err := reprocessService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("chunk statistics: %w", err)
	}
	out := statsOutput{Chunks: chunks}

	if queueInspector != nil {
		queues, err := queueInspector.Stats()
		if err != nil {
			cmd.PrintErrf("warning: queue statistics unavailable: %v\n", err)
		}
		out.Queues = queues
	}

	if statsJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Chunks:")
	cmd.Printf("  total      %d\n", chunks.Total)
	cmd.Printf("  completed  %d\n", chunks.Completed)
	cmd.Printf("  pending    %d\n", chunks.Pending)
	cmd.Printf("  failed     %d\n", chunks.Failed)

	if len(out.Queues) > 0 {
		cmd.Println()
		cmd.Println("Queues:")
		for _, q := range out.Queues {
			cmd.Printf("  %-9s pending=%d active=%d retry=%d archived=%d completed=%d\n",
				q.Queue, q.Pending, q.Active, q.Retry, q.Archived, q.Completed)
		}
	}
	return nil
}
