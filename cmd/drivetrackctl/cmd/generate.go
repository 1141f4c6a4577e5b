package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

type generateResponse struct {
	Date      string `json:"date"`
	Generated int    `json:"generated"`
}

func newGenerateCmd(newClient func() *client) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the scheduled inspections due on a date",
		Long:  `Spawn one inspection per active template due on the date. Running it twice for the same date creates nothing the second time.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if date == "" {
				date = time.Now().UTC().Format("2006-01-02")
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			var resp generateResponse
			if err := newClient().do(http.MethodPost, "/api/v1/scheduler/run?date="+url.QueryEscape(date), nil, &resp); err != nil {
				return err
			}
			cmd.Printf("Generated %d inspection(s) for %s\n", resp.Generated, resp.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to generate for (default today, UTC)")
	return cmd
}
