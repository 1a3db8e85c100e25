package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/models"
)

// RowHeader is the header of github-data-<account>.csv
var RowHeader = []string{
	"Repo Name", "Repo URL", "Repo Owner", "GH Username", "Name", "Role", "Type", "Email", "Commit URL", "Commit API URL",
}

// ComboHeader is the header of unique-combos-<account>.csv
var ComboHeader = []string{"GH Username", "Email", "Name"}

// DataFileName is the per-account identity rows file
func DataFileName(account string) string {
	return fmt.Sprintf("github-data-%s.csv", account)
}

// CombosFileName is the per-account unique combinations file
func CombosFileName(account string) string {
	return fmt.Sprintf("unique-combos-%s.csv", account)
}

// RowWriter appends identity rows to an open CSV file.
// Each row is flushed so an interrupted run keeps everything written so far.
type RowWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// OpenRowWriter opens dir/github-data-<account>.csv for appending.
// The header is written only when the file is new or empty.
func OpenRowWriter(dir, account string) (*RowWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to create output directory %s", dir)
	}

	path := filepath.Join(dir, DataFileName(account))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.FileSystemErrorf(err, "failed to open %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.FileSystemErrorf(err, "failed to stat %s", path)
	}

	w := &RowWriter{path: path, file: file, writer: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := w.write(RowHeader); err != nil {
			file.Close()
			return nil, err
		}
	}
	return w, nil
}

// Path is the file being written
func (w *RowWriter) Path() string {
	return w.path
}

// WriteRow appends one identity row
func (w *RowWriter) WriteRow(_ context.Context, row models.Row) error {
	return w.write([]string{
		row.RepoName,
		row.RepoURL,
		row.RepoOwner,
		row.Login,
		row.Name,
		string(row.Role),
		string(row.Type),
		row.Email,
		row.CommitURL,
		row.CommitAPI,
	})
}

func (w *RowWriter) write(record []string) error {
	if err := w.writer.Write(record); err != nil {
		return errors.FileSystemErrorf(err, "failed to write %s", w.path)
	}
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return errors.FileSystemErrorf(err, "failed to write %s", w.path)
	}
	return nil
}

// Close flushes and closes the file
func (w *RowWriter) Close() error {
	w.writer.Flush()
	flushErr := w.writer.Error()
	if err := w.file.Close(); err != nil {
		return errors.FileSystemErrorf(err, "failed to close %s", w.path)
	}
	if flushErr != nil {
		return errors.FileSystemErrorf(flushErr, "failed to flush %s", w.path)
	}
	return nil
}

// WriteCombos overwrites dir/unique-combos-<account>.csv and returns its path
func WriteCombos(dir, account string, combos []models.Identity) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.FileSystemErrorf(err, "failed to create output directory %s", dir)
	}

	path := filepath.Join(dir, CombosFileName(account))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.FileSystemErrorf(err, "failed to create %s", path)
	}
	defer file.Close()

	if err := FormatCombos(file, combos); err != nil {
		return "", errors.FileSystemErrorf(err, "failed to write %s", path)
	}
	return path, file.Close()
}

// FormatCombos writes the combinations CSV, header first
func FormatCombos(w io.Writer, combos []models.Identity) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(ComboHeader); err != nil {
		return err
	}
	for _, id := range combos {
		if err := writer.Write([]string{id.Login, id.Email, id.Name}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
