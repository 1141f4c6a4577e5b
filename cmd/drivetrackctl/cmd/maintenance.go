package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

type maintenanceReport struct {
	Records   int `json:"records"`
	Malformed int `json:"malformed"`
	Totals    struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Failed    int `json:"failed"`
		Pending   int `json:"pending"`
	} `json:"totals"`
}

func newMaintenanceCmd(newClient func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Maintenance record reports",
	}

	report := &cobra.Command{
		Use:   "report",
		Short: "Summarize checklist progress across maintenance records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r maintenanceReport
			if err := newClient().do(http.MethodGet, "/api/v1/maintenance/report", nil, &r); err != nil {
				return err
			}
			cmd.Printf("Records:   %d (%d unreadable)\n", r.Records, r.Malformed)
			cmd.Printf("Checklist: %d total, %d completed, %d failed, %d pending\n",
				r.Totals.Total, r.Totals.Completed, r.Totals.Failed, r.Totals.Pending)
			return nil
		},
	}

	cmd.AddCommand(report)
	return cmd
}
