// Package export renders the ledger as downloadable reports: a zip of
// semicolon-separated files and an XLSX workbook.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"rumclub/internal/core"
)

// File is one generated report.
type File struct {
	Name string
	Data []byte
}

// Files renders the summary, one file per sample month and one per tasting
// event. Files are built concurrently from the same read-only ledger.
func Files(ctx context.Context, l *core.Ledger) ([]File, error) {
	files := make([]File, 1+len(core.SampleMonths)+len(core.TastingMonths))
	g, ctx := errgroup.WithContext(ctx)

	build := func(i int, name string, render func() ([]byte, error)) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := render()
			if err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			files[i] = File{Name: name, Data: data}
			return nil
		})
	}

	build(0, "synthese.csv", func() ([]byte, error) { return SummaryCSV(l) })
	for i, m := range core.SampleMonths {
		month := m
		build(1+i, fmt.Sprintf("echantillons_%02d_%s.csv", i+2, FileName(month)), func() ([]byte, error) {
			return SampleCSV(l, month)
		})
	}
	base := 1 + len(core.SampleMonths)
	for i, m := range core.TastingMonths {
		month := m
		build(base+i, fmt.Sprintf("degustation_%d_%s.csv", i+1, FileName(month)), func() ([]byte, error) {
			return TastingCSV(l, month)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// WriteZip writes every report into one zip archive.
func WriteZip(ctx context.Context, w io.Writer, l *core.Ledger) error {
	files, err := Files(ctx, l)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return fmt.Errorf("add %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}
