package core

import (
	"context"
	"time"

	"github.com/oneconcern/amos/pkg/core/status"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// CommitOption sets options for a commit
type CommitOption func(*commitSettings)

type commitSettings struct {
	skipRebase bool
	at         time.Time
	source     string
}

// SkipRebase commits the stage as is. By default, the stage is rebased at the commit time.
func SkipRebase() CommitOption {
	return func(s *commitSettings) {
		s.skipRebase = true
	}
}

// CommitAt sets the commit time, stamped on staged strings without a modification time.
// It defaults to now.
func CommitAt(t time.Time) CommitOption {
	return func(s *commitSettings) {
		s.at = t
	}
}

// Source tags the commit with the process it originates from (e.g. "git", "commitscript")
func Source(source string) CommitOption {
	return func(s *commitSettings) {
		s.source = source
	}
}

// CommitResult describes a successful commit
type CommitResult struct {
	ID      string `json:"id" yaml:"id"`
	Records int    `json:"records" yaml:"records"`
}

// Commit appends the staged strings to the repository log, as one atomic commit.
//
// Committing an empty stage is a no-op and yields an empty result. On failure, the stage is left
// untouched and the error wraps status.ErrCommit. On success, the stage is cleared.
func (s *Stage) Commit(ctx context.Context, message string, meta map[string]string, opts ...CommitOption) (CommitResult, error) {
	var cs commitSettings
	for _, apply := range opts {
		apply(&cs)
	}
	cs.at = s.repo.orNow(cs.at)
	logger := s.repo.settings.logger

	if !cs.skipRebase {
		// rebase a copy so the stage remains untouched whenever the commit fails
		rebased := &Stage{repo: s.repo, sets: s.sets}
		if err := rebased.Rebase(ctx, RebaseAt(cs.at)); err != nil {
			return CommitResult{}, status.ErrCommit.WrapWithLog(logger, err)
		}
		if !rebased.HasComponent() {
			s.Clear()
			return CommitResult{}, nil
		}
		return s.append(ctx, rebased.sets, message, meta, cs)
	}

	if !s.HasComponent() {
		return CommitResult{}, nil
	}
	return s.append(ctx, s.sets, message, meta, cs)
}

func (s *Stage) append(ctx context.Context, sets map[model.SetKey]*model.StringSet, message string, meta map[string]string, cs commitSettings) (CommitResult, error) {
	logger := s.repo.settings.logger
	m := s.repo.settings.metrics
	timer := prometheus.NewTimer(m.CommitDuration)
	defer timer.ObserveDuration()

	commit := model.Commit{
		ID:        ksuid.New().String(),
		Message:   message,
		Source:    cs.source,
		Meta:      meta,
		Committed: cs.at,
	}

	staged := &Stage{repo: s.repo, sets: sets}
	records := make([]model.Record, 0, len(sets))
	for _, set := range staged.Components() {
		key := set.Key()
		for _, str := range set.Strings() {
			if str.Modified.IsZero() {
				str.Modified = cs.at
			}
			records = append(records, model.NewRecord(key, str))
		}
	}

	if err := s.repo.log.Append(ctx, commit, records); err != nil {
		return CommitResult{}, status.ErrCommit.Wrapf("%s", commit.ID).WrapWithLog(logger, err)
	}

	s.Clear()
	s.repo.invalidate(records)
	m.Commits.Inc()
	m.RecordsAppended.Add(float64(len(records)))
	logger.Info("stage committed",
		zap.String("commit", commit.ID),
		zap.String("source", commit.Source),
		zap.Int("sets", len(sets)),
		zap.Int("records", len(records)),
	)

	return CommitResult{ID: commit.ID, Records: len(records)}, nil
}
