package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/preview"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	sharp    bool
	spelling string
	format   string
	store    string
	list     bool
	limit    int
}

// previewCommand creates the preview command: an interactive terminal view
// of a song where the key can be changed with the arrow keys.
func (c *CLI) previewCommand() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Browse a song and try it in other keys",
		Long: `Preview shows a song in the terminal with chords above the lyrics.

Use ←/→ to transpose, s to switch between sharps and flats and enter to
pick the key. Without a file, preview lists the songs in the preview store
and opens the one you select.`,
		Example: `  cifra preview santo.md
  cifra preview --list`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeSongFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				song, err := loadSong(cmd, args[0])
				if err != nil {
					return err
				}
				return c.runPreview(cmd, song.Title(), song.Body, args[0], &opts)
			}
			return c.runPreviewList(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.sharp, "sharp", false, "spell accidentals with sharps")
	cmd.Flags().StringVar(&opts.spelling, "spelling", "", "accidental spelling: flat, sharp")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "notation: inline, above, mixed (default: detect)")
	cmd.Flags().StringVar(&opts.store, "store", "", "preview store: sqlite, mongo, memory (default from config)")
	cmd.Flags().BoolVar(&opts.list, "list", false, "print stored previews instead of opening one")
	cmd.Flags().IntVar(&opts.limit, "limit", preview.DefaultListLimit, "maximum number of stored previews to list")

	return cmd
}

// runPreview opens the key selector for text and reports the chosen key.
func (c *CLI) runPreview(cmd *cobra.Command, title, text, path string, opts *previewOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	spelling := c.spellingFlag(opts.sharp, opts.spelling)
	sp, err := chord.ParseSpelling(spelling)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpelling, err, "invalid spelling %q", spelling)
	}
	doc, err := runner.Parse(ctx, pipeline.Options{
		Text:     text,
		Format:   opts.format,
		MaxBytes: c.Config.Render.MaxBytes,
	})
	if err != nil {
		return err
	}
	if title == "" {
		title = "Untitled"
	}

	final, err := tea.NewProgram(NewSongModel(title, doc, sp), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	m, ok := final.(SongModel)
	if !ok || m.Selected == nil {
		return nil
	}

	sel := m.Selected
	if sel.Key == nil {
		printInfo("Song has no chords to transpose")
		return nil
	}
	printSuccess("Selected %s (%+d)", StyleChord.Render(sel.Key.String()), signedInterval(sel.Interval))
	if path != "" && path != "-" && sel.Interval != 0 {
		cmdline := fmt.Sprintf("cifra transpose %s --to-key %s -w", path, sel.Key)
		if sel.Spelling == chord.Sharp {
			cmdline += " --sharp"
		}
		printNextStep("Apply it with", cmdline)
	}
	return nil
}

// runPreviewList lists stored previews and opens the selected one.
func (c *CLI) runPreviewList(cmd *cobra.Command, opts *previewOpts) error {
	ctx := cmd.Context()
	store, err := c.openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List(ctx, opts.limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		printInfo("No previews stored")
		printNextStep("Import songs with", "cifra import songs/")
		return nil
	}
	if opts.list {
		fmt.Fprintln(cmd.OutOrStdout(), previewTable(recs))
		return nil
	}

	final, err := tea.NewProgram(NewPreviewListModel(recs), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	m, ok := final.(PreviewListModel)
	if !ok || m.Selected == nil {
		return nil
	}
	rec := m.Selected
	return c.runPreview(cmd, rec.Title, rec.Markdown, rec.Path, &previewOpts{
		sharp:    opts.sharp,
		spelling: opts.spelling,
		format:   rec.Format,
	})
}
