// Command gofirehose manages Amazon Data Firehose delivery streams.
package main

import "github.com/3leaps/gofirehose/internal/cmd"

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	cmd.Execute()
}
