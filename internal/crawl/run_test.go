package crawl

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/rohankatakam/gitemails/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMirror struct {
	memorySink
	combos []models.Identity
}

func (m *memoryMirror) SaveCombos(_ context.Context, combos []models.Identity) error {
	m.combos = combos
	return nil
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestRun_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	src := chainSource()
	mirror := &memoryMirror{}

	summary, err := Run(context.Background(), src, Options{
		Account:   models.Account{Name: "alice", Kind: models.AccountUser},
		Depth:     1,
		OutputDir: dir,
		Mirror:    mirror,
	}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "github-data-alice.csv"), summary.DataFile)
	assert.Equal(t, filepath.Join(dir, "unique-combos-alice.csv"), summary.CombosFile)
	assert.Equal(t, 2, summary.Accounts)
	assert.Equal(t, 2, summary.Repositories)

	data := readLines(t, summary.DataFile)
	assert.Len(t, data, summary.Rows+1)
	assert.Len(t, mirror.rows, summary.Rows)

	combos := readLines(t, summary.CombosFile)
	assert.Equal(t, "GH Username,Email,Name", combos[0])
	assert.Equal(t, []string{
		"alice,alice@example.com,Alice",
		"bob,bob@example.com,Bob",
		"carol,carol@example.com,Carol",
	}, combos[1:])
	assert.Equal(t, 3, summary.UniqueCombos)
	assert.Len(t, mirror.combos, 3)
}

func TestRun_WritesCombosOnFailure(t *testing.T) {
	dir := t.TempDir()
	src := chainSource()
	boom := stderrors.New("connection reset")
	failing := &failAfterFirst{fakeSource: src, err: boom}

	summary, err := Run(context.Background(), failing, Options{
		Account:   models.Account{Name: "alice", Kind: models.AccountUser},
		Depth:     1,
		OutputDir: dir,
	}, testLogger())
	require.ErrorIs(t, err, boom)
	require.NotNil(t, summary)

	combos := readLines(t, filepath.Join(dir, "unique-combos-alice.csv"))
	assert.Equal(t, []string{
		"GH Username,Email,Name",
		"alice,alice@example.com,Alice",
		"bob,bob@example.com,Bob",
	}, combos)
}

// failAfterFirst fails every listing after the first
type failAfterFirst struct {
	*fakeSource
	err error
}

func (f *failAfterFirst) ListRepositories(ctx context.Context, account models.Account) ([]models.Repository, error) {
	if len(f.listed) > 0 {
		return nil, f.err
	}
	return f.fakeSource.ListRepositories(ctx, account)
}

func TestRun_RejectsBadOptions(t *testing.T) {
	_, err := Run(context.Background(), newFakeSource(), Options{}, testLogger())
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = Run(context.Background(), newFakeSource(), Options{
		Account: models.Account{Name: "alice"},
		Depth:   -1,
	}, testLogger())
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestRun_EmptyAccount(t *testing.T) {
	dir := t.TempDir()
	summary, err := Run(context.Background(), newFakeSource(), Options{
		Account:   models.Account{Name: "nobody", Kind: models.AccountUser},
		OutputDir: dir,
	}, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{strings.Join(output.RowHeader, ",")}, readLines(t, summary.DataFile))
	assert.Equal(t, []string{"GH Username,Email,Name"}, readLines(t, summary.CombosFile))
}
