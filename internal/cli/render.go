package cli

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/songfile"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	out      string // output file path, stdout when empty
	output   string // html, text, source, json
	format   string // notation override
	interval int    // semitones
	toKey    string // target key, wins over interval
	sharp    bool
	spelling string
	noCache  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a song as HTML, text, source or JSON",
		Long: `Render detects the notation of a song, optionally transposes it and writes
the result. Use "-" to read the song from stdin.

Outputs:
  html    HTML fragment with chords positioned over the lyrics (default)
  text    monospaced chords-over-lyrics text
  source  the song re-written in its own notation
  json    the parsed document`,
		Example: `  cifra render santo.md -o santo.html
  cifra render santo.md --transpose 2 --output text
  cifra render santo.md --to-key A --sharp`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeSongFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			song, err := loadSong(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runRender(cmd, song, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.output, "output", "", "output: html, text, source, json (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "notation: inline, above, mixed (default: detect)")
	cmd.Flags().IntVarP(&opts.interval, "transpose", "t", 0, "transpose by N semitones")
	cmd.Flags().StringVar(&opts.toKey, "to-key", "", "transpose to key K, from the key of the first chord")
	cmd.Flags().BoolVar(&opts.sharp, "sharp", false, "spell accidentals with sharps")
	cmd.Flags().StringVar(&opts.spelling, "spelling", "", "accidental spelling: flat, sharp (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// runRender renders song and writes the body to opts.out or stdout. Status
// lines go to stderr so stdout stays pipeable.
func (c *CLI) runRender(cmd *cobra.Command, song songfile.Song, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	res, err := c.render(ctx, song.Body, opts)
	if err != nil {
		return err
	}
	logger.Debug("rendered", "path", song.Path, "format", res.Document.Format, "output", res.Output)

	body := res.Body
	toStdout := opts.out == "" || opts.out == "-"
	if toStdout && len(body) > 0 && !bytes.HasSuffix(body, []byte("\n")) {
		body = append(body, '\n')
	}
	if err := writeOutput(cmd, opts.out, body); err != nil {
		return err
	}

	if len(res.Detection.Ambiguous) > 0 {
		printWarning("Lines %s may need review", formatLines(res.Detection.Ambiguous))
	}
	if !toStdout {
		printSuccess("Rendered %s", song.Title())
		printFile(opts.out)
		printStats(res)
	}
	return nil
}

// render runs the pipeline for text with the flags in opts and the config
// defaults.
func (c *CLI) render(ctx context.Context, text string, opts *renderOpts) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	output := opts.output
	if output == "" {
		output = c.Config.Render.Output
	}
	return runner.Execute(ctx, pipeline.Options{
		Text:     text,
		Format:   opts.format,
		Interval: opts.interval,
		ToKey:    opts.toKey,
		Spelling: c.spellingFlag(opts.sharp, opts.spelling),
		Output:   output,
		MaxBytes: c.Config.Render.MaxBytes,
		Logger:   loggerFromContext(ctx),
	})
}
