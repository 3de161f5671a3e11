package cli

import (
	"encoding/json"
	"fmt"

	"github.com/glorpus-work/hdrget/pkg/resolver"
	"github.com/spf13/cobra"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve INPUT",
		Short: "Show the asset id extracted from an input",
		Long:  "Print the asset id and any resolution or format hint found in INPUT without contacting the network",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ref, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput(cfg) {
		return json.NewEncoder(out).Encode(map[string]string{
			"id":         ref.ID,
			"resolution": string(ref.Resolution),
			"format":     string(ref.Format),
		})
	}

	_, _ = fmt.Fprintf(out, "Asset:      %s\n", ref.ID)
	_, _ = fmt.Fprintf(out, "Resolution: %s\n", orNone(string(ref.Resolution)))
	_, _ = fmt.Fprintf(out, "Format:     %s\n", orNone(string(ref.Format)))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
