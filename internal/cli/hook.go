package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/glorpus-work/hdrget/pkg/hook"
	"github.com/spf13/cobra"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage the post-acquire hook",
		Long:  "Create the Tengo script that runs after every successful get",
	}

	cmd.AddCommand(newHookInitCmd())

	return cmd
}

func newHookInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init FILE",
		Short: "Write a starter hook script",
		Long: `Write a commented post-acquire script to FILE and point post_acquire_hook at it.
FILE must end in .tengo`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHookInit(args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing script")

	return cmd
}

func runHookInit(file string, force bool) error {
	if filepath.Ext(file) != hook.ScriptExtension {
		return errors.Wrap(errors.ErrHookLoad, hook.ErrUnsupportedHookFile(file).Error())
	}

	cfg, err := loadFileConfig()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("hook script already exists at %s (use --force to overwrite)", path)
	}

	if err := fsutil.EnsureFileDir(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(hook.HookTemplate(hook.PostAcquire)+"\n"), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write hook script: %w", err)
	}

	cfg.Settings.PostAcquireHook = path
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Hook script created", logger.Fields{"path": path})
	return nil
}
