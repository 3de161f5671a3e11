package cli

import (
	"fmt"

	"github.com/glorpus-work/hdrget/pkg/release"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for hdrget, optionally checking for a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Check whether a newer release is available")

	return cmd
}

func runVersion(cmd *cobra.Command, check bool) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "hdrget version %s\n", Version)
	_, _ = fmt.Fprintf(out, "Build date: %s\n", BuildDate)
	_, _ = fmt.Fprintf(out, "Git commit: %s\n", GitCommit)

	if !check {
		return nil
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}

	status, err := release.NewChecker(svc.http, svc.cfg.Settings.VersionURL).Check(cmd.Context(), Version)
	if err != nil {
		return err
	}

	if status.Available {
		_, _ = fmt.Fprintf(out, "A newer release is available: %s (current %s)\n", status.Latest, status.Current)
	} else {
		_, _ = fmt.Fprintf(out, "hdrget is up to date (%s)\n", status.Current)
	}
	return nil
}
