package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/preview"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	workers int
	store   string
	force   bool
	asJSON  bool
	noCache bool
}

// importCommand creates the import command, which renders song folders
// into the preview store.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import [path...]",
		Short: "Render song files into the preview store",
		Long: `Import renders every song file (.md, .txt, .cifra) under the given paths and
stores the result as a preview. Directories are walked recursively. Songs
whose text is already stored are left alone unless --force is given.

A file that fails to render is reported and does not stop the import.`,
		Example: `  cifra import songs/
  cifra import songs/ --store mongo --workers 8`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeSongFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args, &opts)
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent files (default from config, then GOMAXPROCS)")
	cmd.Flags().StringVar(&opts.store, "store", "", "preview store: sqlite, mongo, memory (default from config)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "store a new preview even when the text is unchanged")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, paths []string, opts *importOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	store, err := c.openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	imp := preview.NewImporter(runner, store, logger)
	imp.Workers = opts.workers
	if imp.Workers == 0 {
		imp.Workers = c.Config.Import.Workers
	}
	imp.Force = opts.force

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Importing songs...")
	if !opts.asJSON {
		imp.Progress = func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("Importing songs... %d/%d", done, total))
		}
		spinner.Start()
	}
	sum, err := imp.Import(ctx, paths)
	if !opts.asJSON {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("import finished", "files", sum.Files, "imported", sum.Imported, "failed", sum.Failed)

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	printImportSummary(sum)
	return nil
}

func printImportSummary(sum *preview.Summary) {
	if sum.Files == 0 {
		printWarning("No song files found")
		return
	}

	printSuccess("Imported %s", plural(sum.Imported, "song"))
	if sum.Unchanged > 0 {
		printDetail("%d unchanged", sum.Unchanged)
	}
	fmt.Fprintln(statusOut, summaryTable(sum))

	for _, f := range sum.Failures {
		printError("%s: %s", f.Path, f.Err)
	}
	if sum.Flagged > 0 {
		printWarning("%s flagged for review", plural(sum.Flagged, "song"))
		printNextStep("Browse them with", "cifra preview")
	}
}
