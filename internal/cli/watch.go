package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/songfile"
)

// watchDebounce collapses the burst of events an editor produces on save.
const watchDebounce = 150 * time.Millisecond

// watchCommand creates the watch command, which re-renders a song every
// time it is saved.
func (c *CLI) watchCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a song whenever it changes",
		Long: `Watch renders a song once, then again every time the file is saved, until
interrupted. Render errors are reported and watching continues.`,
		Example: `  cifra watch santo.md -o santo.html
  cifra watch santo.md -o santo.txt --output text --transpose 2`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSongFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.out == "" || opts.out == "-" {
				return errors.New(errors.ErrCodeInvalidInput, "watch needs an output file (-o)")
			}
			if err := errors.ValidateSongPath(args[0]); err != nil {
				return err
			}
			return c.runWatch(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file")
	cmd.Flags().StringVar(&opts.output, "output", "", "output: html, text, source, json (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "notation: inline, above, mixed (default: detect)")
	cmd.Flags().IntVarP(&opts.interval, "transpose", "t", 0, "transpose by N semitones")
	cmd.Flags().StringVar(&opts.toKey, "to-key", "", "transpose to key K, from the key of the first chord")
	cmd.Flags().BoolVar(&opts.sharp, "sharp", false, "spell accidentals with sharps")
	cmd.Flags().StringVar(&opts.spelling, "spelling", "", "accidental spelling: flat, sharp (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runWatch(cmd *cobra.Command, path string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	rerender := func() {
		song, err := songfile.Load(path)
		if err == nil {
			err = c.runRender(cmd, song, opts)
		}
		if err != nil {
			printError("%s", errors.UserMessage(err))
			logger.Debug("render failed", "path", path, "err", err)
		}
	}

	rerender()
	printInfo("Watching %s (ctrl+c to stop)", path)
	return watchFile(ctx, path, watchDebounce, rerender)
}

// watchFile calls onChange after path is written, created or renamed into
// place, once per burst of events. It watches the parent directory so
// editors that save by replacing the file are seen. It returns nil when ctx
// is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	logger := loggerFromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("file changed", "path", path, "op", ev.Op)
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-timer.C:
			onChange()
		}
	}
}
