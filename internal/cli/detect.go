package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/sheet"
)

// detectResult is one line of `cifra detect --json` output.
type detectResult struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	Directive bool   `json:"directive,omitempty"`
	Ambiguous []int  `json:"ambiguous"`
}

// detectCommand creates the detect command, which reports the notation of
// each song without rendering it.
func (c *CLI) detectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect [file...]",
		Short: "Report the chord notation of song files",
		Long: `Detect reports whether each song uses inline, chords-above or mixed notation.

Lines that look like a section header or a bare chord row inside an inline
song are listed for review, since the inline rule won over them. Use "-" to
read a song from stdin.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeSongFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := pipeline.NewRunner(nil, nil, c.Logger)
			results := make([]detectResult, 0, len(args))
			for _, path := range args {
				song, err := loadSong(cmd, path)
				if err != nil {
					return err
				}
				d := runner.Detect(cmd.Context(), song.Body)
				results = append(results, newDetectResult(path, d))
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			for _, r := range results {
				printDetection(r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")

	return cmd
}

func newDetectResult(path string, d sheet.Detection) detectResult {
	r := detectResult{
		Path:      path,
		Format:    d.Format.String(),
		Directive: d.Directive,
		Ambiguous: d.Ambiguous,
	}
	if r.Ambiguous == nil {
		r.Ambiguous = []int{}
	}
	return r
}

func printDetection(r detectResult) {
	format := StyleHighlight.Render(r.Format)
	if r.Directive {
		format += StyleDim.Render(" (#mic#)")
	}
	if len(r.Ambiguous) == 0 {
		printSuccess("%s  %s", r.Path, format)
		return
	}
	printWarning("%s  %s", r.Path, r.Format)
	printDetail("review lines %s", formatLines(r.Ambiguous))
}
