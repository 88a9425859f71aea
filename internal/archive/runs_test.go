package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAt(userID, runID string, started time.Time) *models.MatchRun {
	return &models.MatchRun{
		RunID:              runID,
		UserID:             userID,
		SourceNewsletterID: "n-" + userID,
		StartedAt:          started,
		FinishedAt:         started.Add(2 * time.Second),
		Settings:           models.DefaultMatchingSettings(),
		Matches: []models.MatchSummary{
			{TargetNewsletterID: "t1", TargetUserID: "bob", Compatibility: 0.72, Reasons: []string{"Similar engagement levels"}},
		},
		CampaignIDs: []string{"c1"},
	}
}

func TestRunArchive_SaveAndGet(t *testing.T) {
	a := NewRunArchive(NewMemoryBlobStore(), 0)
	ctx := context.Background()
	started := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	name, err := a.SaveRun(ctx, runAt("alice", "r1", started))
	require.NoError(t, err)
	assert.Equal(t, "runs/alice/2026-05-04-09-00-00-r1.json", name)

	run, err := a.GetRun(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "r1", run.RunID)
	assert.Equal(t, []string{"c1"}, run.CampaignIDs)
	require.Len(t, run.Matches, 1)
	assert.Equal(t, 0.72, run.Matches[0].Compatibility)
}

func TestRunArchive_SaveRequiresIdentity(t *testing.T) {
	a := NewRunArchive(NewMemoryBlobStore(), 0)

	_, err := a.SaveRun(context.Background(), &models.MatchRun{UserID: "alice"})

	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestRunArchive_ListRunsNewestFirst(t *testing.T) {
	a := NewRunArchive(NewMemoryBlobStore(), 0)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		_, err := a.SaveRun(ctx, runAt("alice", id, base.Add(time.Duration(i)*24*time.Hour)))
		require.NoError(t, err)
	}
	_, err := a.SaveRun(ctx, runAt("bob", "r9", base))
	require.NoError(t, err)

	names, err := a.ListRuns(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"runs/alice/2026-05-03-09-00-00-r3.json",
		"runs/alice/2026-05-02-09-00-00-r2.json",
		"runs/alice/2026-05-01-09-00-00-r1.json",
	}, names)
}

func TestRunArchive_GetRunUnknown(t *testing.T) {
	a := NewRunArchive(NewMemoryBlobStore(), 0)

	tests := []struct {
		name string
		blob string
	}{
		{"missing blob", "runs/alice/2026-05-01-09-00-00-r1.json"},
		{"outside the runs prefix", "secrets/config.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.GetRun(context.Background(), tt.blob)
			assert.True(t, errors.Is(err, models.ErrNotFound))
		})
	}
}

func TestRunArchive_Prune(t *testing.T) {
	blobs := NewMemoryBlobStore()
	a := NewRunArchive(blobs, 7*24*time.Hour)
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := a.SaveRun(ctx, runAt("alice", "old", now.Add(-10*24*time.Hour)))
	require.NoError(t, err)
	_, err = a.SaveRun(ctx, runAt("bob", "older", now.Add(-30*24*time.Hour)))
	require.NoError(t, err)
	_, err = a.SaveRun(ctx, runAt("alice", "recent", now.Add(-2*24*time.Hour)))
	require.NoError(t, err)
	require.NoError(t, blobs.Save(ctx, "runs/alice/garbage.json", []byte("{}")))

	removed, err := a.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := blobs.List(ctx, "runs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/alice/2026-05-18-12-00-00-recent.json", "runs/alice/garbage.json"}, remaining)
}

func TestRunArchive_PruneDisabled(t *testing.T) {
	blobs := NewMemoryBlobStore()
	a := NewRunArchive(blobs, 0)
	ctx := context.Background()

	_, err := a.SaveRun(ctx, runAt("alice", "ancient", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	removed, err := a.Prune(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
