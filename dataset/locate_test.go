package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestResolveDataDirFirstExistingWins(t *testing.T) {
	existing := t.TempDir()
	missing := filepath.Join(existing, "does-not-exist")

	got := ResolveDataDir([]string{missing, existing}, zap.NewNop().Sugar())
	assert.Equal(t, existing, got)
}

func TestResolveDataDirFallsBackToFirstCandidate(t *testing.T) {
	first := filepath.Join(t.TempDir(), "nope-a")
	second := filepath.Join(t.TempDir(), "nope-b")

	got := ResolveDataDir([]string{first, second}, zap.NewNop().Sugar())
	assert.Equal(t, first, got, "no existing candidate: defer the failure to load time")
}

func TestResolveDataDirEmptyCandidates(t *testing.T) {
	assert.Equal(t, "", ResolveDataDir(nil, zap.NewNop().Sugar()))
}
