package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/classifier"
)

const (
	pdfHeader = "%PDF-1.4\n"
	pngHeader = "\x89PNG\r\n\x1a\n"
)

// fakeExtractor 按文件内容返回预设文本
type fakeExtractor struct {
	fs    afero.Fs
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) Extract(ctx context.Context, path string, kind classifier.Kind) (string, error) {
	f.calls = append(f.calls, path)
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return "", err
	}
	if err := f.errs[string(data)]; err != nil {
		return "", err
	}
	return f.texts[string(data)], nil
}

type fakeLabeler struct {
	labels map[string]string
	err    error
	calls  []string
}

func (f *fakeLabeler) SuggestLabel(ctx context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	if f.err != nil {
		return "", f.err
	}
	return f.labels[text], nil
}

func createFiles(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	return ok
}

func newOrchestrator(t *testing.T, fs afero.Fs, opts Options, ext *fakeExtractor, lab *fakeLabeler) *Orchestrator {
	t.Helper()
	o, err := New(fs, opts, Deps{Extractor: ext, Labeler: lab})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func bothPhases() Options {
	return Options{RemoveDuplicates: true, RenameFiles: true}
}

func TestRun_DedupThenRename(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/P1.pdf": pdfHeader + "budget",
		"/data/P2.pdf": pdfHeader + "budget",
		"/data/I1.png": pngHeader + "sunset",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{
		pdfHeader + "budget": "FY2024 Budget Report",
		pngHeader + "sunset": "Sunset over the bay",
	}}
	lab := &fakeLabeler{labels: map[string]string{
		"FY2024 Budget Report": "Budget Report",
		"Sunset over the bay":  "Bay Sunset",
	}}

	o := newOrchestrator(t, fs, bothPhases(), ext, lab)
	stats, err := o.Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if exists(t, fs, "/data/P2.pdf") {
		t.Error("Expected P2.pdf to be deleted")
	}
	if !exists(t, fs, "/data/Budget Report.pdf") {
		t.Error("Expected P1.pdf to be renamed to Budget Report.pdf")
	}
	if !exists(t, fs, "/data/Bay Sunset.png") {
		t.Error("Expected I1.png to be renamed to Bay Sunset.png")
	}

	for _, call := range ext.calls {
		if call == "/data/P2.pdf" {
			t.Error("Rename phase must never touch the deleted duplicate")
		}
	}

	if stats.Deleted != 1 || stats.Renamed != 2 {
		t.Errorf("Expected 1 deleted and 2 renamed, got %d and %d", stats.Deleted, stats.Renamed)
	}
	if len(stats.Failures) != 0 {
		t.Errorf("Expected no failures, got %v", stats.Failures)
	}
	if o.Phase() != internal.PhaseDone {
		t.Errorf("Expected phase done, got %s", o.Phase())
	}
}

func TestRun_EmptyExtractionSkipsLabeler(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/blank.png": pngHeader + "blank",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{pngHeader + "blank": "  \n "}}
	lab := &fakeLabeler{}

	stats, err := newOrchestrator(t, fs, bothPhases(), ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(lab.calls) != 0 {
		t.Error("Label generator must not be called for empty text")
	}
	if !exists(t, fs, "/data/blank.png") {
		t.Error("Expected file to keep its original name")
	}
	if len(stats.Failures) != 0 {
		t.Errorf("Empty extraction is not a failure, got %v", stats.Failures)
	}
	if len(stats.Skipped) != 1 || stats.Skipped[0].Path != "/data/blank.png" {
		t.Errorf("Expected blank.png to be reported as skipped, got %v", stats.Skipped)
	}
}

func TestRun_PerFileFailuresDoNotAbort(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.pdf": pdfHeader + "broken",
		"/data/b.pdf": pdfHeader + "fine",
	})

	ext := &fakeExtractor{
		fs:    fs,
		texts: map[string]string{pdfHeader + "fine": "Lease Agreement"},
		errs:  map[string]error{pdfHeader + "broken": internal.ErrExtraction},
	}
	lab := &fakeLabeler{labels: map[string]string{"Lease Agreement": "Lease Agreement"}}

	stats, err := newOrchestrator(t, fs, bothPhases(), ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(stats.Failures) != 1 || stats.Failures[0].Path != "/data/a.pdf" {
		t.Fatalf("Expected one failure for a.pdf, got %v", stats.Failures)
	}
	if !errors.Is(stats.Failures[0], internal.ErrExtraction) {
		t.Errorf("Expected ErrExtraction, got %v", stats.Failures[0])
	}
	if !exists(t, fs, "/data/a.pdf") {
		t.Error("Failed file must keep its original name")
	}
	if !exists(t, fs, "/data/Lease Agreement.pdf") {
		t.Error("Expected b.pdf to be renamed despite the earlier failure")
	}
}

func TestRun_GenerationFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.png": pngHeader + "a",
		"/data/b.png": pngHeader + "b",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{
		pngHeader + "a": "text a",
		pngHeader + "b": "text b",
	}}
	lab := &fakeLabeler{err: errors.New("rate limited")}

	stats, err := newOrchestrator(t, fs, bothPhases(), ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(lab.calls) != 2 {
		t.Errorf("Expected every file to be attempted once, got %d calls", len(lab.calls))
	}
	if len(stats.Failures) != 2 {
		t.Errorf("Expected 2 failures, got %d", len(stats.Failures))
	}
	if !exists(t, fs, "/data/a.png") || !exists(t, fs, "/data/b.png") {
		t.Error("Files must be left untouched on generation failure")
	}
}

func TestRun_EmptyLabelFallsBackToUntitled(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/scan.pdf": pdfHeader + "x",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{pdfHeader + "x": "some text"}}
	lab := &fakeLabeler{labels: map[string]string{"some text": "???"}}

	stats, err := newOrchestrator(t, fs, Options{RenameFiles: true}, ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !exists(t, fs, "/data/Untitled.pdf") {
		t.Error("Expected fallback name Untitled.pdf")
	}
	if stats.Renamed != 1 {
		t.Errorf("Expected 1 renamed, got %d", stats.Renamed)
	}
}

func TestRun_CollidingLabels(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/Notes.pdf": pdfHeader + "existing",
		"/data/x.pdf":     pdfHeader + "x",
		"/data/y.pdf":     pdfHeader + "y",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{
		pdfHeader + "x": "notes x",
		pdfHeader + "y": "notes y",
	}}
	lab := &fakeLabeler{labels: map[string]string{"notes x": "Notes", "notes y": "Notes"}}

	stats, err := newOrchestrator(t, fs, Options{RenameFiles: true}, ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, p := range []string{"/data/Notes.pdf", "/data/Notes_1.pdf", "/data/Notes_2.pdf"} {
		if !exists(t, fs, p) {
			t.Errorf("Expected %s to exist", p)
		}
	}
	if len(stats.Skipped) != 1 {
		t.Errorf("Expected the existing Notes.pdf (no text) to be skipped, got %v", stats.Skipped)
	}
}

func TestRun_IgnoresOtherTypes(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/notes.txt": "plain text",
		"/data/song.mp3":  "ID3\x04\x00\x00\x00\x00\x00\x00",
	})

	ext := &fakeExtractor{fs: fs}
	lab := &fakeLabeler{}

	stats, err := newOrchestrator(t, fs, bothPhases(), ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ext.calls) != 0 {
		t.Errorf("Extractor must not be called for unrecognized types, got %v", ext.calls)
	}
	if stats.Ignored != 2 {
		t.Errorf("Expected 2 ignored, got %d", stats.Ignored)
	}
}

func TestRun_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.pdf":     pdfHeader + "a",
		"/data/copy.pdf":  pdfHeader + "a",
		"/data/sub/b.png": pngHeader + "b",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{
		pdfHeader + "a": "alpha",
		pngHeader + "b": "beta",
	}}
	lab := &fakeLabeler{labels: map[string]string{"alpha": "Alpha", "beta": "Beta"}}

	o := newOrchestrator(t, fs, bothPhases(), ext, lab)
	if _, err := o.Run(context.Background(), "/data"); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	second, err := o.Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if second.Deleted != 0 || second.Renamed != 0 {
		t.Errorf("Expected no changes on second run, got %d deleted and %d renamed", second.Deleted, second.Renamed)
	}
	if second.Unchanged != 2 {
		t.Errorf("Expected 2 unchanged, got %d", second.Unchanged)
	}
	if !exists(t, fs, filepath.Join("/data", "Alpha.pdf")) || !exists(t, fs, filepath.Join("/data", "sub", "Beta.png")) {
		t.Error("Expected renamed files to stay in place")
	}
}

func TestRun_DedupOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.pdf": pdfHeader + "a",
		"/data/b.pdf": pdfHeader + "a",
	})

	o, err := New(fs, Options{RemoveDuplicates: true}, Deps{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats, err := o.Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Deleted != 1 || stats.Renamed != 0 {
		t.Errorf("Expected 1 deleted and no renames, got %d and %d", stats.Deleted, stats.Renamed)
	}
	if !exists(t, fs, "/data/a.pdf") {
		t.Error("Expected a.pdf to keep its name when renaming is disabled")
	}
}

func TestRun_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.pdf": pdfHeader + "a",
		"/data/b.pdf": pdfHeader + "a",
	})

	ext := &fakeExtractor{fs: fs, texts: map[string]string{pdfHeader + "a": "alpha"}}
	lab := &fakeLabeler{labels: map[string]string{"alpha": "Alpha"}}

	opts := bothPhases()
	opts.DryRun = true
	stats, err := newOrchestrator(t, fs, opts, ext, lab).Run(context.Background(), "/data")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !exists(t, fs, "/data/a.pdf") || !exists(t, fs, "/data/b.pdf") {
		t.Error("Dry run must not modify the tree")
	}
	if stats.Duplicates != 1 {
		t.Errorf("Expected 1 duplicate reported, got %d", stats.Duplicates)
	}
	if len(ext.calls) != 1 || ext.calls[0] != "/data/a.pdf" {
		t.Errorf("Expected only the survivor to be considered for renaming, got %v", ext.calls)
	}
}

func TestRun_Canceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.pdf": pdfHeader + "a",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := &fakeExtractor{fs: fs}
	_, err := newOrchestrator(t, fs, bothPhases(), ext, &fakeLabeler{}).Run(ctx, "/data")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(ext.calls) != 0 {
		t.Error("No file should be processed after cancellation")
	}
}

func TestNew_RenameRequiresDeps(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), Options{RenameFiles: true}, Deps{})
	if !errors.Is(err, internal.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got %v", err)
	}
}

func TestRun_MissingRoot(t *testing.T) {
	o, err := New(afero.NewMemMapFs(), Options{RemoveDuplicates: true}, Deps{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := o.Run(context.Background(), "/missing"); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestRun_CanceledBeforeDedup(t *testing.T) {
	fs := afero.NewMemMapFs()
	createFiles(t, fs, map[string]string{
		"/data/a.txt": "same",
		"/data/b.txt": "same",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, err := New(fs, Options{RemoveDuplicates: true}, Deps{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	stats, err := o.Run(ctx, "/data")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if stats.Deleted != 0 {
		t.Errorf("Expected nothing deleted, got %d", stats.Deleted)
	}
	if !exists(t, fs, "/data/b.txt") {
		t.Error("Canceled run must not delete b.txt")
	}
	if o.Phase() != internal.PhaseDedup {
		t.Errorf("Expected run to stop in dedup phase, got %s", o.Phase())
	}
}

// 预览结果应与真实运行一致：尚未删除的重复文件不占用名称
func TestRun_DryRunMatchesRealRun(t *testing.T) {
	files := map[string]string{
		"/data/A.pdf":    pdfHeader + "zeta",
		"/data/Zeta.pdf": pdfHeader + "zeta",
		"/data/x.pdf":    pdfHeader + "x",
		"/data/y.pdf":    pdfHeader + "y",
	}
	texts := map[string]string{
		pdfHeader + "zeta": "zeta text",
		pdfHeader + "x":    "notes x",
		pdfHeader + "y":    "notes y",
	}
	labels := map[string]string{"zeta text": "Zeta", "notes x": "Notes", "notes y": "Notes"}

	run := func(dryRun bool) []internal.RenameRecord {
		fs := afero.NewMemMapFs()
		createFiles(t, fs, files)

		opts := bothPhases()
		opts.DryRun = dryRun
		o := newOrchestrator(t, fs, opts, &fakeExtractor{fs: fs, texts: texts}, &fakeLabeler{labels: labels})

		stats, err := o.Run(context.Background(), "/data")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return stats.Renames
	}

	preview, actual := run(true), run(false)

	want := []internal.RenameRecord{
		{From: "/data/A.pdf", To: "/data/Zeta.pdf"},
		{From: "/data/x.pdf", To: "/data/Notes.pdf"},
		{From: "/data/y.pdf", To: "/data/Notes_1.pdf"},
	}
	for name, got := range map[string][]internal.RenameRecord{"dry run": preview, "real run": actual} {
		if len(got) != len(want) {
			t.Fatalf("[%s] Expected %d renames, got %v", name, len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("[%s] rename %d = %v, want %v", name, i, got[i], want[i])
			}
		}
	}
}
