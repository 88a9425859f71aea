package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	runsPrefix  = "runs/"
	stampLayout = "2006-01-02-15-04-05"
)

// RunArchive stores matching run snapshots as JSON blobs named
// runs/{userID}/{timestamp}-{runID}.json
type RunArchive struct {
	blobs     BlobStore
	retention time.Duration
	now       func() time.Time
}

// NewRunArchive creates an archive over blobs. Runs older than retention are
// removed by Prune; a zero retention keeps everything.
func NewRunArchive(blobs BlobStore, retention time.Duration) *RunArchive {
	return &RunArchive{blobs: blobs, retention: retention, now: time.Now}
}

// RunName returns the blob name for a run
func RunName(run *models.MatchRun) string {
	return fmt.Sprintf("%s%s/%s-%s.json", runsPrefix, run.UserID, run.StartedAt.UTC().Format(stampLayout), run.RunID)
}

// SaveRun writes the run and returns its blob name
func (a *RunArchive) SaveRun(ctx context.Context, run *models.MatchRun) (string, error) {
	if run.UserID == "" || run.RunID == "" {
		return "", &models.ValidationError{Field: "run", Reason: "user id and run id are required"}
	}

	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	name := RunName(run)
	if err := a.blobs.Save(ctx, name, data); err != nil {
		return "", err
	}
	logrus.Infof("Archived run %s for user %s", run.RunID, run.UserID)
	return name, nil
}

// ListRuns returns the archived run names of a user, newest first
func (a *RunArchive) ListRuns(ctx context.Context, userID string) ([]string, error) {
	names, err := a.blobs.List(ctx, runsPrefix+userID+"/")
	if err != nil {
		return nil, err
	}

	runs := make([]string, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		runs = append(runs, names[i])
	}
	return runs, nil
}

// GetRun loads one archived run by blob name
func (a *RunArchive) GetRun(ctx context.Context, name string) (*models.MatchRun, error) {
	if !strings.HasPrefix(name, runsPrefix) {
		return nil, fmt.Errorf("run %s: %w", name, models.ErrNotFound)
	}

	data, err := a.blobs.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	var run models.MatchRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", name, err)
	}
	return &run, nil
}

// Prune deletes runs older than the retention period and returns how many were removed
func (a *RunArchive) Prune(ctx context.Context) (int, error) {
	if a.retention <= 0 {
		return 0, nil
	}

	names, err := a.blobs.List(ctx, runsPrefix)
	if err != nil {
		return 0, err
	}

	cutoff := a.now().Add(-a.retention)
	removed := 0
	for _, name := range names {
		started, ok := runTime(name)
		if !ok {
			logrus.Warnf("Skipping archive entry with unexpected name %s", name)
			continue
		}
		if !started.Before(cutoff) {
			continue
		}
		if err := a.blobs.Delete(ctx, name); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		logrus.Infof("Pruned %d archived runs older than %v", removed, a.retention)
	}
	return removed, nil
}

func runTime(name string) (time.Time, bool) {
	base := path.Base(name)
	if len(base) < len(stampLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(stampLayout, base[:len(stampLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
