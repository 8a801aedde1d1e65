package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/songfile"
	"github.com/cantai/cifra/pkg/transpose"
)

// transposeOpts holds the command-line flags for the transpose command.
type transposeOpts struct {
	out      string
	write    bool
	toKey    string
	sharp    bool
	spelling string
	noCache  bool
}

// transposeCommand creates the transpose command, which rewrites a song in
// another key and keeps its notation and front matter.
func (c *CLI) transposeCommand() *cobra.Command {
	var opts transposeOpts

	cmd := &cobra.Command{
		Use:   "transpose [file] [semitones]",
		Short: "Rewrite a song file in another key",
		Long: `Transpose moves every chord of a song by a number of semitones, or to the key
given with --to-key, and writes the song back in its own notation. Front
matter is kept and its key is transposed too.

Negative intervals must follow "--" so they are not read as flags.`,
		Example: `  cifra transpose santo.md 2
  cifra transpose santo.md --to-key A -w
  cifra transpose santo.md -o santo-bb.md -- -2`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeSongFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, err := parseInterval(args, opts.toKey)
			if err != nil {
				return err
			}
			if opts.write && (args[0] == "-" || opts.out != "") {
				return errors.New(errors.ErrCodeInvalidInput, "--write needs a file and cannot be combined with --out")
			}
			song, err := loadSong(cmd, args[0])
			if err != nil {
				return err
			}
			return c.runTranspose(cmd, song, interval, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "rewrite the file in place")
	cmd.Flags().StringVar(&opts.toKey, "to-key", "", "transpose to key K, from the key of the first chord")
	cmd.Flags().BoolVar(&opts.sharp, "sharp", false, "spell accidentals with sharps")
	cmd.Flags().StringVar(&opts.spelling, "spelling", "", "accidental spelling: flat, sharp (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

// parseInterval reads the semitones argument. It is required unless a
// target key is given.
func parseInterval(args []string, toKey string) (int, error) {
	if len(args) < 2 {
		if toKey == "" {
			return 0, errors.New(errors.ErrCodeInvalidInput, "give a number of semitones or --to-key")
		}
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[1], "+"))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInterval, err, "invalid interval %q", args[1])
	}
	return n, nil
}

func (c *CLI) runTranspose(cmd *cobra.Command, song songfile.Song, interval int, opts *transposeOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spelling := c.spellingFlag(opts.sharp, opts.spelling)
	res, err := runner.Execute(ctx, pipeline.Options{
		Text:     song.Body,
		Interval: interval,
		ToKey:    opts.toKey,
		Spelling: spelling,
		Output:   pipeline.OutputSource,
		MaxBytes: c.Config.Render.MaxBytes,
		Logger:   loggerFromContext(ctx),
	})
	if err != nil {
		return err
	}

	out := song
	out.Body = string(res.Body)
	if out.Meta.Key != "" {
		sp, _ := chord.ParseSpelling(spelling)
		out.Meta.Key = transpose.Chord(out.Meta.Key, res.Interval, sp)
	}

	if opts.write {
		if err := songfile.Save(song.Path, out); err != nil {
			return err
		}
		printSuccess("Transposed %s (%+d)", song.Title(), signedInterval(res.Interval))
		printFile(song.Path)
		return nil
	}

	data, err := songfile.Marshal(out)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, opts.out, data); err != nil {
		return err
	}
	if opts.out != "" && opts.out != "-" {
		printSuccess("Transposed %s (%+d)", song.Title(), signedInterval(res.Interval))
		printFile(opts.out)
	}
	return nil
}
