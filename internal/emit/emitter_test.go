package emit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlinject/internal/assets"
	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/errors"
)

type fixture struct {
	src    string
	outDir string
	job    Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "cat.png"), []byte("meow"), 0o644))

	doc, err := dom.ParseString(`<img src="cat.png">`)
	require.NoError(t, err)

	outDir := filepath.Join(root, "dist", "nested")
	return &fixture{
		src:    src,
		outDir: outDir,
		job: Job{
			Doc:      doc,
			OutDir:   outDir,
			Filename: "index.html",
			Assets: []assets.Reference{
				{Input: filepath.Join(src, "cat.png"), Output: filepath.Join(outDir, "cat.png")},
				{Input: filepath.Join(src, "cat.png"), Output: filepath.Join(outDir, "cat.png")},
			},
		},
	}
}

func TestEmitWritesDocumentAndAssets(t *testing.T) {
	f := newFixture(t)
	e := New(nil)

	report, err := e.Emit(context.Background(), f.job)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.outDir, "index.html"), report.HTMLPath)
	assert.Equal(t, []string{filepath.Join(f.outDir, "cat.png")}, report.Copied)
	assert.Empty(t, report.Skipped)

	written, err := os.ReadFile(report.HTMLPath)
	require.NoError(t, err)
	assert.Equal(t, `<!DOCTYPE html><html><head></head><body><img src="cat.png"/></body></html>`, string(written))

	copied, err := os.ReadFile(filepath.Join(f.outDir, "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(copied))
	assert.Equal(t, 1, e.Ledger().Len())
}

func TestEmitSkipsUnchangedAssets(t *testing.T) {
	f := newFixture(t)
	e := New(NewLedger())
	ctx := context.Background()

	_, err := e.Emit(ctx, f.job)
	require.NoError(t, err)

	report, err := e.Emit(ctx, f.job)
	require.NoError(t, err)
	assert.Empty(t, report.Copied)
	assert.Equal(t, []string{filepath.Join(f.outDir, "cat.png")}, report.Skipped)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.src, "cat.png"), later, later))
	report, err = e.Emit(ctx, f.job)
	require.NoError(t, err)
	assert.Len(t, report.Copied, 1)

	require.NoError(t, os.Remove(filepath.Join(f.outDir, "cat.png")))
	report, err = e.Emit(ctx, f.job)
	require.NoError(t, err)
	assert.Len(t, report.Copied, 1, "missing destination is copied again")
}

func TestEmitMissingAssetFailsPass(t *testing.T) {
	f := newFixture(t)
	f.job.Assets = append(f.job.Assets, assets.Reference{
		Input:  filepath.Join(f.src, "missing.png"),
		Output: filepath.Join(f.outDir, "missing.png"),
	})

	_, err := New(nil).Emit(context.Background(), f.job)
	require.Error(t, err)
	assert.True(t, errors.IsIOError(err))

	_, statErr := os.Stat(filepath.Join(f.outDir, "index.html"))
	assert.NoError(t, statErr, "no rollback of files already written")
}

func TestLedgerFreshRequiresExactMTime(t *testing.T) {
	l := NewLedger()
	now := time.Now()

	assert.False(t, l.Fresh("/a", now))
	l.Record("/a", now)
	assert.True(t, l.Fresh("/a", now))
	assert.False(t, l.Fresh("/a", now.Add(time.Nanosecond)))
	assert.False(t, l.Fresh("/a", now.Add(-time.Second)))
}

func TestEmitNeverCopiesAssetOntoItself(t *testing.T) {
	tests := []struct {
		name   string
		output func(dir string) string
	}{
		{
			name:   "same path",
			output: func(dir string) string { return filepath.Join(dir, "logo.png") },
		},
		{
			name:   "same file through unclean path",
			output: func(dir string) string {
				sep := string(filepath.Separator)
				return dir + sep + "sub" + sep + ".." + sep + "logo.png"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
			logo := filepath.Join(dir, "logo.png")
			require.NoError(t, os.WriteFile(logo, []byte("PNGDATA"), 0o644))

			doc, err := dom.ParseString(`<link rel="icon" href="logo.png">`)
			require.NoError(t, err)

			e := New(NewLedger())
			job := Job{
				Doc:      doc,
				OutDir:   dir,
				Filename: "index.html",
				Assets:   []assets.Reference{{Input: logo, Output: tt.output(dir)}},
			}
			for pass := 0; pass < 2; pass++ {
				report, err := e.Emit(context.Background(), job)
				require.NoError(t, err)
				assert.Empty(t, report.Copied)
				assert.Len(t, report.Skipped, 1)
			}

			data, err := os.ReadFile(logo)
			require.NoError(t, err)
			assert.Equal(t, "PNGDATA", string(data))
		})
	}
}
