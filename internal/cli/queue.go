package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Maintain the task queues",
}

var queueRetryCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Re-run tasks that exhausted their attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if queueInspector == nil {
			return errors.New("queue inspector not configured")
		}
		n, err := queueInspector.RetryArchived()
		if err != nil {
			return fmt.Errorf("retry failed tasks: %w", err)
		}
		cmd.Printf("Retried %d failed tasks.\n", n)
		return nil
	},
}

var queueCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete retained completed tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if queueInspector == nil {
			return errors.New("queue inspector not configured")
		}
		n, err := queueInspector.CleanupCompleted()
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}
		cmd.Printf("Removed %d completed tasks.\n", n)
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueRetryCmd)
	queueCmd.AddCommand(queueCleanupCmd)
	rootCmd.AddCommand(queueCmd)
}
