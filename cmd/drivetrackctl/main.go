// Command drivetrackctl triggers scheduled work on a drivetrack server.
// It is meant to be run by cron or another external scheduler.
package main

import (
	"os"

	"github.com/hsdfat8/drivetrack/cmd/drivetrackctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
