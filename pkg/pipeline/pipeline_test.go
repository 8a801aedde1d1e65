package pipeline

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cantai/cifra/pkg/cache"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/observability"
	"github.com/cantai/cifra/pkg/sheet"
)

func TestValidateOutput(t *testing.T) {
	tests := []struct {
		output  string
		wantErr bool
	}{
		{"html", false},
		{"text", false},
		{"source", false},
		{"json", false},
		{"svg", true},
		{"HTML", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateOutput(tt.output)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateOutput(%q) error = %v, wantErr %v", tt.output, err, tt.wantErr)
		}
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"A", "A", false},
		{"F#", "F#", false},
		{" Bbm ", "Bb", false},
		{"H", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("ParseKey(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidKey) {
			t.Errorf("ParseKey(%q) code = %s, want INVALID_KEY", tt.in, errors.GetCode(err))
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"nul byte", Options{Text: "[C]\x00"}, errors.ErrCodeInvalidInput},
		{"too large", Options{Text: "[C]Santo", MaxBytes: 4}, errors.ErrCodeTooLarge},
		{"bad format", Options{Text: "[C]x", Format: "tab"}, errors.ErrCodeInvalidFormat},
		{"bad spelling", Options{Text: "[C]x", Spelling: "natural"}, errors.ErrCodeInvalidSpelling},
		{"bad output", Options{Text: "[C]x", Output: "pdf"}, errors.ErrCodeInvalidOutput},
		{"bad key", Options{Text: "[C]x", ToKey: "X"}, errors.ErrCodeInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	opts := Options{Text: "[C]Santo", Spelling: "#"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Output != OutputHTML {
		t.Errorf("Output = %q, want html", opts.Output)
	}
	if opts.Spelling != "sharp" {
		t.Errorf("Spelling = %q, want canonical sharp", opts.Spelling)
	}
	if opts.MaxBytes != errors.MaxTextBytes {
		t.Errorf("MaxBytes = %d", opts.MaxBytes)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestTransposes(t *testing.T) {
	for _, tt := range []struct {
		opts Options
		want bool
	}{
		{Options{}, false},
		{Options{Interval: 12}, false},
		{Options{Interval: -1}, true},
		{Options{ToKey: "A"}, true},
	} {
		if got := tt.opts.Transposes(); got != tt.want {
			t.Errorf("Transposes(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		format sheet.Format
		want   string
	}{
		{
			name:   "inline up a tone",
			opts:   Options{Text: "[C]Santo, [Am]santo", Interval: 2, Output: OutputSource},
			format: sheet.Inline,
			want:   "[D]Santo, [Bm]santo",
		},
		{
			name:   "slash chord sharp",
			opts:   Options{Text: "[D/F#]Gl\u00f3ria", Interval: 1, Spelling: "sharp", Output: OutputSource},
			format: sheet.Inline,
			want:   "[D#/G]Gl\u00f3ria",
		},
		{
			name:   "to key",
			opts:   Options{Text: "[G]Santo [D/F#]santo", ToKey: "A", Output: OutputSource},
			format: sheet.Inline,
			want:   "[A]Santo [E/Ab]santo",
		},
		{
			name:   "negative interval",
			opts:   Options{Text: "[C]Santo", Interval: -1, Output: OutputSource},
			format: sheet.Inline,
			want:   "[B]Santo",
		},
		{
			name:   "plain text",
			opts:   Options{Text: "[C]Santo, [Am]santo", Output: OutputText},
			format: sheet.Inline,
			want:   "C      Am\nSanto, santo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(nil, nil, nil)
			res, err := r.Execute(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Document.Format != tt.format {
				t.Errorf("format = %s, want %s", res.Document.Format, tt.format)
			}
			if got := string(res.Body); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
			if res.Stats.Bytes != len(res.Body) {
				t.Errorf("Stats.Bytes = %d, want %d", res.Stats.Bytes, len(res.Body))
			}
		})
	}
}

func TestExecuteHTML(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Text: "[C]Santo", Interval: 2})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	body := string(res.Body)
	for _, want := range []string{`class="chord-sheet chord-sheet-inline"`, `<span class="chord">D</span>`} {
		if !strings.Contains(body, want) {
			t.Errorf("html missing %q:\n%s", want, body)
		}
	}
	if res.Interval != 2 {
		t.Errorf("Interval = %d, want 2", res.Interval)
	}
}

func TestExecuteFormatOverride(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Text: "C  G\nSanto", Format: "inline"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Detection.Format != sheet.Above {
		t.Errorf("Detection.Format = %s, want above", res.Detection.Format)
	}
	if res.Document.Format != sheet.Inline {
		t.Errorf("Document.Format = %s, want inline", res.Document.Format)
	}
	if res.Stats.Chords != 0 {
		t.Errorf("inline parse of an above sheet found %d chords, want 0", res.Stats.Chords)
	}
}

func TestExecuteToKeyWithoutChords(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{Text: "Santo santo", ToKey: "D", Output: OutputSource})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Interval != 0 {
		t.Errorf("Interval = %d, want 0", res.Interval)
	}
	if string(res.Body) != "Santo santo" {
		t.Errorf("body = %q", res.Body)
	}
}

func TestExecuteCaching(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(cache.NewMemoryCache(), nil, nil)
	defer r.Close()
	song := "Intro:\n[C] [G]\n\n[C]Santo, [Am]santo"

	first, err := r.Execute(ctx, Options{Text: song, Interval: 2})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.SheetHit || first.CacheInfo.ArtifactHit {
		t.Errorf("first run should miss, got %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, Options{Text: song, Interval: 2})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.SheetHit || !second.CacheInfo.ArtifactHit {
		t.Errorf("second run should hit, got %+v", second.CacheInfo)
	}
	if string(first.Body) != string(second.Body) {
		t.Error("cached body differs from rendered body")
	}
	if diff := cmp.Diff(first.Document, second.Document, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cached document differs (-first +second):\n%s", diff)
	}

	// Same sheet, different key: sheet hit, artifact miss.
	third, err := r.Execute(ctx, Options{Text: song, Interval: 14})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if !third.CacheInfo.SheetHit {
		t.Error("third run should reuse the parsed sheet")
	}
	if !third.CacheInfo.ArtifactHit {
		t.Error("interval 14 is interval 2 and should reuse the artifact")
	}

	fourth, err := r.Execute(ctx, Options{Text: song, Interval: 3})
	if err != nil {
		t.Fatalf("fourth Execute: %v", err)
	}
	if !fourth.CacheInfo.SheetHit || fourth.CacheInfo.ArtifactHit {
		t.Errorf("new interval should hit sheet only, got %+v", fourth.CacheInfo)
	}

	fifth, err := r.Execute(ctx, Options{Text: song, Interval: 2, NoCache: true})
	if err != nil {
		t.Fatalf("fifth Execute: %v", err)
	}
	if fifth.CacheInfo.SheetHit || fifth.CacheInfo.ArtifactHit {
		t.Errorf("NoCache should bypass the cache, got %+v", fifth.CacheInfo)
	}
}

func TestExecuteHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	h := &recordingHooks{}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)

	r := NewRunner(cache.NewMemoryCache(), nil, nil)
	if _, err := r.Execute(context.Background(), Options{Text: "[C]Santo", Interval: 1}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{
		"detect inline",
		"miss sheet",
		"set sheet",
		"parse inline",
		"transpose 1",
		"miss artifact",
		"set artifact",
		"render html",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("hook events (-want +got):\n%s", diff)
	}
}

func TestRunnerParse(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	doc, err := r.Parse(context.Background(), Options{Text: "C        Am\nSanto    santo"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Format != sheet.Above {
		t.Errorf("format = %s, want above", doc.Format)
	}
	if len(doc.Chords()) != 2 {
		t.Errorf("chords = %d, want 2", len(doc.Chords()))
	}

	empty, err := r.Parse(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Parse(empty): %v", err)
	}
	if !empty.IsEmpty() {
		t.Errorf("Parse(empty) lines = %d, want 0", len(empty.Lines))
	}
}

func TestExecuteEmpty(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	for _, output := range []string{OutputHTML, OutputText, OutputSource} {
		res, err := r.Execute(context.Background(), Options{Text: "", Output: output})
		if err != nil {
			t.Fatalf("Execute(%s): %v", output, err)
		}
		if len(res.Body) != 0 {
			t.Errorf("Execute(%s) body = %q, want empty", output, res.Body)
		}
		if res.Detection.Format != sheet.Above {
			t.Errorf("Execute(%s) format = %s, want above", output, res.Detection.Format)
		}
	}

	if _, err := r.Execute(context.Background(), Options{Text: "  \n"}); err != nil {
		t.Errorf("Execute(whitespace): %v", err)
	}
}

func TestExecuteReducesInterval(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	tests := []struct {
		interval int
		want     int
		body     string
	}{
		{14, 2, "[D]Santo"},
		{30, 6, "[Gb]Santo"},
		{-13, 11, "[B]Santo"},
		{99, 3, "[Eb]Santo"},
	}
	for _, tt := range tests {
		res, err := r.Execute(context.Background(), Options{
			Text: "[C]Santo", Interval: tt.interval, Output: OutputSource,
		})
		if err != nil {
			t.Fatalf("Execute(%d): %v", tt.interval, err)
		}
		if res.Interval != tt.want {
			t.Errorf("Execute(%d) interval = %d, want %d", tt.interval, res.Interval, tt.want)
		}
		if got := string(res.Body); got != tt.body {
			t.Errorf("Execute(%d) body = %q, want %q", tt.interval, got, tt.body)
		}
	}
}

func TestRenderUnsupported(t *testing.T) {
	if _, err := Render(sheet.Document{}, "pdf"); err == nil {
		t.Error("Render should reject unknown outputs")
	}
}

func TestDocumentJSON(t *testing.T) {
	doc := sheet.DetectAndParse("#mic#\nRefrão:\n[C] [G/B] | [Am]\n\n[D/F#]Glória [Hmaj]a")
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}
	got, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument: %v", err)
	}
	if diff := cmp.Diff(doc, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if _, err := UnmarshalDocument([]byte("{")); err == nil {
		t.Error("UnmarshalDocument should reject truncated JSON")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	observability.NoopCacheHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnDetect(_ context.Context, format string, _ int) {
	h.add("detect " + format)
}

func (h *recordingHooks) OnParseComplete(_ context.Context, format string, _, _ int, _ time.Duration) {
	h.add("parse " + format)
}

func (h *recordingHooks) OnTranspose(_ context.Context, interval int, _ string) {
	h.add("transpose " + strconv.Itoa(interval))
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, output string, _ int, _ time.Duration, _ error) {
	h.add("render " + output)
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.add("miss " + keyType) }
func (h *recordingHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.add("set " + keyType)
}
