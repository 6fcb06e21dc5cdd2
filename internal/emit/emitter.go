// Package emit writes a rendered document and its local assets to the
// output directory.
package emit

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/htmlinject/internal/assets"
	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/errors"
)

// Job is one emission.
type Job struct {
	Doc      *html.Node
	OutDir   string
	Filename string
	Assets   []assets.Reference
}

// Report lists what an emission did.
type Report struct {
	HTMLPath string
	Copied   []string
	Skipped  []string
}

// Emitter writes jobs, skipping asset copies the ledger shows as current.
type Emitter struct {
	ledger *Ledger
}

// New returns an Emitter backed by ledger. A nil ledger gets a fresh one.
func New(ledger *Ledger) *Emitter {
	if ledger == nil {
		ledger = NewLedger()
	}
	return &Emitter{ledger: ledger}
}

// Ledger returns the emitter's copy ledger.
func (e *Emitter) Ledger() *Ledger {
	return e.ledger
}

// Emit creates the output directory, then writes the document and copies
// the assets concurrently. The first failure is returned once every
// operation has finished; files already written stay on disk.
func (e *Emitter) Emit(ctx context.Context, job Job) (*Report, error) {
	if err := os.MkdirAll(job.OutDir, 0o755); err != nil {
		return nil, errors.WrapIO(err, errors.CodeWrite, job.OutDir)
	}

	var buf bytes.Buffer
	if err := dom.Render(&buf, job.Doc); err != nil {
		return nil, errors.NewIOError(errors.CodeWrite, "rendering document", err)
	}

	report := &Report{HTMLPath: filepath.Join(job.OutDir, job.Filename)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.WrapIO(os.WriteFile(report.HTMLPath, buf.Bytes(), 0o644), errors.CodeWrite, report.HTMLPath)
	})

	for _, ref := range dedupe(job.Assets) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			copied, err := e.copyAsset(ref.Input, ref.Output)
			if err != nil {
				return err
			}
			mu.Lock()
			if copied {
				report.Copied = append(report.Copied, ref.Output)
			} else {
				report.Skipped = append(report.Skipped, ref.Output)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Copied)
	sort.Strings(report.Skipped)
	return report, nil
}

// copyAsset copies src to dst unless the ledger holds src's current mtime
// and dst is still present. A src that already is dst is never copied.
func (e *Emitter) copyAsset(src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, errors.WrapIO(err, errors.CodeCopy, src)
	}
	if existing, err := os.Stat(dst); err == nil {
		if os.SameFile(info, existing) {
			return false, nil
		}
		if e.ledger.Fresh(src, info.ModTime()) {
			return false, nil
		}
	}

	if err := copyFile(src, dst); err != nil {
		return false, errors.WrapIO(err, errors.CodeCopy, src)
	}
	e.ledger.Record(src, info.ModTime())
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// dedupe keeps the first reference for every output path.
func dedupe(refs []assets.Reference) []assets.Reference {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if _, ok := seen[r.Output]; ok {
			continue
		}
		seen[r.Output] = struct{}{}
		out = append(out, r)
	}
	return out
}
