package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultURL = "http://localhost:8080"

// client calls the drivetrack HTTP API
type client struct {
	baseURL string
	actor   string
	http    *http.Client
}

// problem mirrors the server's RFC 7807 error body
type problem struct {
	Title        string   `json:"title"`
	Status       int      `json:"status"`
	Detail       string   `json:"detail"`
	MissingTasks []string `json:"missing_tasks"`
}

// NewRootCmd builds the command tree with its own configuration
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "drivetrackctl",
		Short: "drivetrackctl triggers inspection generation and performance batches",
		Long: `drivetrackctl is the operations tool for a drivetrack server.

Typical cron entries:

  Generate the day's scheduled inspections:
    drivetrackctl generate --date 2024-03-04

  Recompute every operator's performance snapshot:
    drivetrackctl performance batch --window 30

Configuration:
  DRIVETRACK_URL    server endpoint (default: ` + defaultURL + `)
  DRIVETRACK_ACTOR  user ID sent as X-User-ID where a route needs one`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}
			return nil
		},
	}

	v.SetEnvPrefix("DRIVETRACK")
	v.AutomaticEnv()

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	root.PersistentFlags().String("url", defaultURL, "drivetrack server URL")
	_ = v.BindPFlag("url", root.PersistentFlags().Lookup("url"))
	root.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	root.PersistentFlags().String("actor", "", "user ID sent as X-User-ID")
	_ = v.BindPFlag("actor", root.PersistentFlags().Lookup("actor"))

	newClient := func() *client {
		return &client{
			baseURL: v.GetString("url"),
			actor:   v.GetString("actor"),
			http:    &http.Client{Timeout: v.GetDuration("timeout")},
		}
	}

	root.AddCommand(newGenerateCmd(newClient))
	root.AddCommand(newPerformanceCmd(newClient))
	root.AddCommand(newMaintenanceCmd(newClient))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func (c *client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.actor != "" {
		req.Header.Set("X-User-ID", c.actor)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var p problem
		if json.Unmarshal(raw, &p) == nil && p.Detail != "" {
			return fmt.Errorf("%s (%d): %s", p.Title, resp.StatusCode, p.Detail)
		}
		return fmt.Errorf("request failed with status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
