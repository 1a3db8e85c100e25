package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func sampleRow() models.Row {
	return models.Row{
		RepoName:  "demo",
		RepoURL:   "https://github.com/alice/demo",
		RepoOwner: "alice",
		Login:     "bob",
		Name:      "Bob, Jr.",
		Role:      models.RoleContributor,
		Type:      models.CommitAuthor,
		Email:     "bob@example.com",
		CommitURL: "https://github.com/alice/demo/commit/abc",
		CommitAPI: "https://api.github.com/repos/alice/demo/commits?per_page=100",
	}
}

func TestRowWriter_WritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w, err := OpenRowWriter(dir, "alice")
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(ctx, sampleRow()))
	require.NoError(t, w.Close())

	// a second run appends without repeating the header
	w, err = OpenRowWriter(dir, "alice")
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(ctx, sampleRow()))
	require.NoError(t, w.Close())

	records := readCSV(t, filepath.Join(dir, "github-data-alice.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, RowHeader, records[0])
	assert.Equal(t, []string{
		"demo", "https://github.com/alice/demo", "alice", "bob", "Bob, Jr.", "Contributor", "Author",
		"bob@example.com", "https://github.com/alice/demo/commit/abc",
		"https://api.github.com/repos/alice/demo/commits?per_page=100",
	}, records[1])
	assert.Equal(t, records[1], records[2])
}

func TestRowWriter_CreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	w, err := OpenRowWriter(dir, "acme")
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, filepath.Join(dir, "github-data-acme.csv"), w.Path())
	assert.FileExists(t, w.Path())
}

func TestWriteCombos_Overwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unique-combos-alice.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0644))

	got, err := WriteCombos(dir, "alice", []models.Identity{
		{Login: "alice", Email: "alice@example.com", Name: "Alice"},
		{Login: models.NotFoundLogin, Email: "ghost@example.com", Name: "Ghost"},
	})
	require.NoError(t, err)
	assert.Equal(t, path, got)

	assert.Equal(t, [][]string{
		ComboHeader,
		{"alice", "alice@example.com", "Alice"},
		{"Not Found", "ghost@example.com", "Ghost"},
	}, readCSV(t, path))
}

func TestFormatCombos_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCombos(&buf, nil))
	assert.Equal(t, "GH Username,Email,Name\n", buf.String())
}
