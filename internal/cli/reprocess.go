package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/rfpsearch/internal/services"
)

var (
	reprocessIncludeFailed bool
	reprocessBatchSize     int
	reprocessDocument      string
	reprocessJSON          bool
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Enqueue embedding jobs for pending chunks",
	Long: `Finds chunks still waiting for an embedding and enqueues them in
low-priority batches. With --include-failed, failed chunks are reset to
pending first. With --document, one job covers that document's chunks.`,
	Args: cobra.NoArgs,
	RunE: runReprocess,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [document-id]",
	Short: "Re-enqueue ingestion for a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	reprocessCmd.Flags().BoolVar(&reprocessIncludeFailed, "include-failed", false, "reset failed chunks to pending first")
	reprocessCmd.Flags().IntVarP(&reprocessBatchSize, "batch-size", "b", services.DefaultReprocessBatch, "chunk ids per job")
	reprocessCmd.Flags().StringVarP(&reprocessDocument, "document", "d", "", "only this document")
	reprocessCmd.Flags().BoolVar(&reprocessJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runReprocess(cmd *cobra.Command, _ []string) error {
	if reprocessService == nil {
		return errors.New("reprocess service not configured")
	}
	if reprocessBatchSize < 1 {
		return fmt.Errorf("--batch-size must be at least 1, got %d", reprocessBatchSize)
	}

	sum, err := reprocessService.ReprocessPending(cmd.Context(), services.ReprocessOptions{
		IncludeFailed: reprocessIncludeFailed,
		BatchSize:     reprocessBatchSize,
		DocumentID:    reprocessDocument,
	})
	if err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}

	if reprocessJSON {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if reprocessIncludeFailed {
		cmd.Printf("Reset %d failed chunks.\n", sum.Reset)
	}
	if sum.Pending == 0 {
		cmd.Println("No pending chunks to process.")
		return nil
	}
	cmd.Printf("Enqueued %d pending chunks in %d jobs.\n", sum.Pending, len(sum.Jobs))
	for _, j := range sum.Jobs {
		cmd.Printf("  %s  queue=%s  batch=%s\n", j.JobID, j.Queue, j.BatchID)
	}
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	if reprocessService == nil {
		return errors.New("reprocess service not configured")
	}
	res, err := reprocessService.Reingest(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Enqueued ingest job %s for document %s.\n", res.JobID, res.DocumentID)
	return nil
}
