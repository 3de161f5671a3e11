package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/resolver"
	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info ASSET",
		Short: "Show catalog information about an HDRI",
		Long:  "Display the category of an asset and every file the catalog lists for it",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	return cmd
}

func runInfo(cmd *cobra.Command, args []string) error {
	ref, err := resolver.Resolve(args[0])
	if err != nil {
		return err
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	files := svc.catalog.Files(ctx, ref.ID)
	category, ok := svc.catalog.Category(ctx, ref.ID)
	if !ok && files.Empty() {
		return fmt.Errorf("%w: catalog has no entry for %s", errors.ErrUnexpectedReply, ref.ID)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Asset:    %s\n", ref.ID)
	_, _ = fmt.Fprintf(out, "Category: %s\n\n", orNone(category))

	tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "FORMAT\tRESOLUTION\tCACHED\tURL")
	_, _ = fmt.Fprintln(tabWriter, "------\t----------\t------\t---")
	for _, pair := range files.Pairs() {
		pair.AssetID = ref.ID
		u, _ := files.Lookup(pair.Format, pair.Resolution)
		_, cached := svc.cache.Lookup(pair)
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\n", pair.Format, pair.Resolution, yesNo(cached), u)
	}
	return tabWriter.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
