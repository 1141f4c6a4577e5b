package cmd

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type performanceSnapshot struct {
	UserID               int64      `json:"user_id"`
	AssignedInspections  int        `json:"assigned_inspections"`
	CompletedInspections int        `json:"completed_inspections"`
	FailedInspections    int        `json:"failed_inspections"`
	PendingInspections   int        `json:"pending_inspections"`
	CompletionRate       float64    `json:"completion_rate"`
	PassRate             float64    `json:"pass_rate"`
	PerformanceScore     float64    `json:"performance_score"`
	Status               string     `json:"status"`
	Notes                string     `json:"notes"`
	LastActivityAt       *time.Time `json:"last_activity_at"`
}

func newPerformanceCmd(newClient func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Compute and inspect operator performance",
	}

	var window int
	batch := &cobra.Command{
		Use:   "batch",
		Short: "Recompute snapshots for every operator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshots []performanceSnapshot
			if err := newClient().do(http.MethodPost, "/api/v1/performance/batch"+windowQuery(window), nil, &snapshots); err != nil {
				return err
			}
			printSnapshots(cmd, snapshots)
			return nil
		},
	}
	batch.Flags().IntVar(&window, "window", 0, "rolling window in days (default server setting)")

	var userWindow int
	user := &cobra.Command{
		Use:   "user [user_id]",
		Short: "Recompute one operator's snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("user_id must be a positive integer")
			}
			var snapshot performanceSnapshot
			if err := newClient().do(http.MethodPost, "/api/v1/performance/"+args[0]+windowQuery(userWindow), nil, &snapshot); err != nil {
				return err
			}
			printSnapshots(cmd, []performanceSnapshot{snapshot})
			return nil
		},
	}
	user.Flags().IntVar(&userWindow, "window", 0, "rolling window in days (default server setting)")

	attention := &cobra.Command{
		Use:   "attention",
		Short: "List operators whose latest snapshot needs attention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshots []performanceSnapshot
			if err := newClient().do(http.MethodGet, "/api/v1/performance/attention", nil, &snapshots); err != nil {
				return err
			}
			if len(snapshots) == 0 {
				cmd.Println("No operators need attention")
				return nil
			}
			printSnapshots(cmd, snapshots)
			return nil
		},
	}

	cmd.AddCommand(batch, user, attention)
	return cmd
}

func windowQuery(window int) string {
	if window <= 0 {
		return ""
	}
	return "?window=" + strconv.Itoa(window)
}

func printSnapshots(cmd *cobra.Command, snapshots []performanceSnapshot) {
	cmd.Printf("%-8s %-9s %6s %6s %6s %s\n", "USER", "STATUS", "SCORE", "DONE%", "PASS%", "NOTES")
	for _, s := range snapshots {
		cmd.Printf("%-8d %-9s %6.1f %6.1f %6.1f %s\n", s.UserID, s.Status, s.PerformanceScore, s.CompletionRate, s.PassRate, s.Notes)
	}
}
