package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/archive"
	"github.com/glorpus-work/hdrget/pkg/cache"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HDRI cache",
		Long:  "Inspect, clean, relocate, export and import the local HDRI cache",
	}

	cmd.AddCommand(
		newCacheInfoCmd(),
		newCacheDirCmd(),
		newCacheListCmd(),
		newCacheCleanCmd(),
		newCacheSetDirCmd(),
		newCacheExportCmd(),
		newCacheImportCmd(),
	)

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Long:  "Display the size and contents of the HDRI cache",
		Args:  cobra.NoArgs,
		RunE:  runCacheInfo,
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Long:  "Display the path to the cache directory",
		Args:  cobra.NoArgs,
		RunE:  runCacheDir,
	}
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached HDRIs",
		Args:  cobra.NoArgs,
		RunE:  runCacheList,
	}
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all     bool
		partial bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the HDRI cache",
		Long:  "Remove leftover partial downloads, or every cached file with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClean(cmd, all, partial)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every cached file")
	cmd.Flags().BoolVar(&partial, "partial", false, "Remove only partial downloads (default)")

	return cmd
}

func newCacheSetDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-dir DIR",
		Short: "Change the cache directory",
		Long:  "Store a new cache directory in the configuration file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheSetDir,
	}
}

func newCacheExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Pack the cache into a tar.gz archive",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheExport,
	}
}

func newCacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Unpack an exported archive into the cache",
		Long:  "Extract cached HDRIs from an archive. Files already in the cache are kept",
		Args:  cobra.ExactArgs(1),
		RunE:  runCacheImport,
	}
}

func newCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewOperation(cache.NewManager(cfg.GetCacheDir())), nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	info, err := op.GetInfo()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), info)
	return nil
}

func runCacheDir(cmd *cobra.Command, _ []string) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), op.GetDirectory())
	return nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	entries, err := cache.NewManager(cfg.GetCacheDir()).List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "The cache is empty.")
		return nil
	}

	tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tabWriter, "ASSET\tRESOLUTION\tFORMAT\tSIZE\tMODIFIED")
	_, _ = fmt.Fprintln(tabWriter, "-----\t----------\t------\t----\t--------")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%s\t%s\n",
			e.Ref.AssetID, e.Ref.Resolution, e.Ref.Format,
			humanize.IBytes(uint64(e.Size)), e.ModTime.Format("2006-01-02 15:04:05"))
	}
	return tabWriter.Flush()
}

func runCacheClean(cmd *cobra.Command, all, partial bool) error {
	op, err := newCacheOperation()
	if err != nil {
		return err
	}

	summary, err := op.Clean(all, partial)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

func runCacheSetDir(_ *cobra.Command, args []string) error {
	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	if err := fsutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	cfg.Settings.CacheDir = dir
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Cache directory updated", logger.Fields{"directory": dir})
	return nil
}

func runCacheExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	n, err := archive.NewManager().Export(cmd.Context(), cfg.GetCacheDir(), args[0])
	if err != nil {
		return err
	}

	logger.Success("Cache exported", logger.Fields{"archive": args[0], "files": n})
	return nil
}

func runCacheImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := archive.NewManager().Import(cmd.Context(), args[0], cfg.GetCacheDir())
	if err != nil {
		return err
	}

	for _, name := range result.Skipped {
		logger.Warn("Skipped archive entry", logger.Fields{"entry": name})
	}
	logger.Success("Cache imported", logger.Fields{
		"imported": len(result.Imported),
		"existing": len(result.Existing),
		"skipped":  len(result.Skipped),
	})
	return nil
}
