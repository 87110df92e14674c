package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3leaps/gofirehose/internal/observability"
	m "github.com/3leaps/gofirehose/pkg/materialize"
)

// confirm asks before a high-impact action. It returns false without error when
// the user declines, in which case nothing is sent. Without a terminal, --force
// is required.
func (a *app) confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if a.force {
		return true, nil
	}
	if !a.isTerminal() {
		return false, exitError(exitInvalidArgument, "Confirmation required",
			&m.ConfigError{Name: "force", Reason: "stdin is not a terminal; pass --force to " + prompt})
	}

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s? [y/N]: ", capitalize(prompt))
	line, _ := bufio.NewReader(a.stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	observability.CLILogger.Info("Aborted; no request was sent")
	return false, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
