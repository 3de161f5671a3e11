package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/hook"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/glorpus-work/hdrget/pkg/orchestrator"
	"github.com/spf13/cobra"
)

type getOptions struct {
	resolution string
	format     string
	noHook     bool
}

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get INPUT",
		Short: "Acquire an HDRI",
		Long: `Resolve INPUT (asset id, Poly Haven page URL or file URL) and make sure a
matching HDRI file is in the local cache. The path of the file is printed on
success. When neither the requested nor any fallback file can be obtained,
every attempted URL is listed and the command fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resolution, "resolution", "r", "", "preferred resolution (1k, 2k, 4k, 8k, 16k)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "preferred format (hdr, exr)")
	cmd.Flags().BoolVar(&opts.noHook, "no-hook", false, "do not run the post-acquire hook")

	return cmd
}

func runGet(cmd *cobra.Command, input string, opts getOptions) error {
	req := orchestrator.Request{Input: input}
	if opts.resolution != "" {
		r, err := model.ParseResolution(opts.resolution)
		if err != nil {
			return err
		}
		req.Resolution = r
	}
	if opts.format != "" {
		f, err := model.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		req.Format = f
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	svc.orch.Hooks.OnEvent = logEvent
	req.OnProgress = newProgressPrinter(cmd.ErrOrStderr()).Update

	result, err := svc.orch.Acquire(cmd.Context(), req)
	if err != nil {
		return err
	}

	if !result.Found() {
		printAttempts(cmd.ErrOrStderr(), result)
		return fmt.Errorf("%w for %s", errors.ErrNotAcquired, result.AssetID)
	}

	if !opts.noHook {
		if err := runPostAcquireHook(cmd.Context(), svc, result); err != nil {
			return err
		}
	}

	if jsonOutput(svc.cfg) {
		return printResultJSON(cmd.OutOrStdout(), result)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Path)
	return nil
}

func printAttempts(w io.Writer, result *orchestrator.Result) {
	_, _ = fmt.Fprintf(w, "No HDRI file could be acquired for %s. Attempted URLs:\n", result.AssetID)
	for _, a := range result.Attempts {
		reason := string(a.Outcome)
		if a.Err != nil {
			reason = a.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "  %s (%s)\n", a.URL, reason)
	}
}

type resultJSON struct {
	AssetID    string   `json:"asset_id"`
	Path       string   `json:"path"`
	Resolution string   `json:"resolution"`
	Format     string   `json:"format"`
	Cached     bool     `json:"cached"`
	Attempted  []string `json:"attempted"`
}

func printResultJSON(w io.Writer, result *orchestrator.Result) error {
	out := resultJSON{
		AssetID:    result.AssetID,
		Path:       result.Path,
		Resolution: string(result.Resolution),
		Format:     string(result.Format),
		Attempted:  result.AttemptedURLs(),
	}
	if n := len(result.Attempts); n > 0 {
		out.Cached = result.Attempts[n-1].Outcome == orchestrator.OutcomeCached
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runPostAcquireHook runs the configured tengo script against the acquired
// file. A missing hook setting is a no-op.
func runPostAcquireHook(ctx context.Context, svc *services, result *orchestrator.Result) error {
	path := svc.cfg.Settings.PostAcquireHook
	if path == "" {
		return nil
	}

	manager := hook.NewHookManager()
	manager.SetTimeout(svc.cfg.Settings.HookTimeout)
	if err := hook.LoadHookFile(manager, hook.PostAcquire, path); err != nil {
		return err
	}

	category, _ := svc.catalog.Category(ctx, result.AssetID)
	logger.Debug("Running post-acquire hook", logger.Fields{"script": path, "asset": result.AssetID})

	return manager.Execute(hook.PostAcquire, hook.HookContext{
		AssetID:    result.AssetID,
		Resolution: string(result.Resolution),
		Format:     string(result.Format),
		Path:       result.Path,
		Category:   category,
	})
}
