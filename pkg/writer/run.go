package writer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/util"
)

// LotResult is the outcome of one generation request.
type LotResult struct {
	Lot  Lot
	Path string
	Err  error

	text string
}

// Result describes a finished batch.
type Result struct {
	Lots    []LotResult
	Archive string
}

// Failed counts the lots that could not be generated.
func (r *Result) Failed() int {
	n := 0
	for _, l := range r.Lots {
		if l.Err != nil {
			n++
		}
	}
	return n
}

// Runner generates every lot of a project in order, one request at a time.
type Runner struct {
	Gen Generator
	// Dir receives the per-lot text files and the archive.
	Dir    string
	Now    func() time.Time
	Logger *zap.Logger
	// Progress, if set, is called after each lot.
	Progress func(done, total int)
}

// Run generates the project. A failed lot is recorded and skipped; the
// batch only stops early when ctx is cancelled. The archive holds every
// generated page file plus a DOCX manuscript of them.
func (r *Runner) Run(ctx context.Context, p Project) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	stem := util.FileStem(p.Title)
	system := p.SystemPrompt()
	lots := Lots(p.TotalPages, p.PagesPerLot)
	res := &Result{Lots: make([]LotResult, 0, len(lots))}

	for i, lot := range lots {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		lr := LotResult{Lot: lot}
		text, err := r.Gen.Generate(ctx, system, p.UserPrompt(lot))
		if err == nil {
			lr.Path = filepath.Join(r.Dir, fmt.Sprintf("%s_p%d_p%d.txt", stem, lot.Start, lot.End))
			err = os.WriteFile(lr.Path, []byte(text), 0644)
		}
		if err != nil {
			logger.Warn("Lot failed", zap.Stringer("lot", lot), zap.Error(err))
			lr.Path, lr.Err = "", err
		} else {
			lr.text = text
			logger.Debug("Lot written", zap.Stringer("lot", lot), zap.String("path", lr.Path))
		}
		res.Lots = append(res.Lots, lr)

		if r.Progress != nil {
			r.Progress(i+1, len(lots))
		}
	}

	archive := filepath.Join(r.Dir, fmt.Sprintf("%s_%s.zip", stem, util.Stamp(now())))
	if err := writeArchive(archive, p.Title, stem, res.Lots); err != nil {
		return res, err
	}
	res.Archive = archive
	logger.Info("Batch finished",
		zap.Int("lots", len(res.Lots)),
		zap.Int("failed", res.Failed()),
		zap.String("archive", archive))
	return res, nil
}

func writeArchive(path, title, stem string, lots []LotResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	var done []LotResult
	for _, l := range lots {
		if l.Err != nil {
			continue
		}
		if err := addFile(zw, l.Path); err != nil {
			return err
		}
		done = append(done, l)
	}

	if len(done) > 0 {
		w, err := zw.Create(stem + ".docx")
		if err != nil {
			return fmt.Errorf("failed to add manuscript to archive: %w", err)
		}
		if err := WriteManuscript(w, title, done); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", path, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", path, err)
	}
	return nil
}
