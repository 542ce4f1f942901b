package script

import (
	"context"
	"time"

	"github.com/oneconcern/amos/pkg/core"
	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/metrics"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/script/status"
	"github.com/oneconcern/amos/pkg/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	defaultSource = "commitscript"

	outcomeExecuted  = "executed"
	outcomeMalformed = "malformed"
	outcomeFailed    = "failed"
)

// Engine executes script instructions against a repository
type Engine struct {
	repo    *core.Repository
	logger  *zap.Logger
	metrics *metrics.M
	source  string
}

// NewEngine builds a script engine for a repository
func NewEngine(repo *core.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:    repo,
		logger:  repo.Logger(),
		metrics: metrics.Discard(),
		source:  defaultSource,
	}
	for _, apply := range opts {
		apply(e)
	}
	return e
}

// Execute an instruction on a version, as of some time. The zero time stands for now.
//
// Every language but the authoring one holding a live string at the source key gets a copy of
// this string staged at the target key, stamped with the execution time. A move also stages the
// deletion of the source key. Nothing is committed: the returned stage is left to the caller.
func (e *Engine) Execute(ctx context.Context, instruction Instruction, version model.Version, ts time.Time) (*core.Stage, error) {
	if ts.IsZero() {
		ts = e.repo.Now()
	}

	if len(instruction.Operands) != 2 {
		return nil, status.ErrMalformedScript.Wrapf("%q: expects 2 operands", instruction.Text)
	}
	source, target := instruction.Source(), instruction.Target()
	sourceComponent, ok := e.repo.LegacyComponentName(source.Component)
	if !ok {
		return nil, status.ErrMalformedScript.Wrapf("%q: invalid component %q", instruction.Text, source.Component)
	}
	targetComponent, ok := e.repo.LegacyComponentName(target.Component)
	if !ok {
		return nil, status.ErrMalformedScript.Wrapf("%q: invalid component %q", instruction.Text, target.Component)
	}

	languages, err := e.repo.Log().Distinct(ctx, store.DimensionLanguage, store.Filter{
		Components: []string{sourceComponent},
		Versions:   []int{version.Code},
	})
	if err != nil {
		return nil, status.ErrExecute.Wrapf("%q", instruction.Text).Wrap(err)
	}

	stage := e.repo.NewStage()
	for _, lang := range languages {
		if lang == e.repo.Authoring() {
			continue
		}

		snapshot, err := e.repo.Snapshot(ctx, sourceComponent, lang, version, ts)
		if err != nil {
			return nil, status.ErrExecute.Wrapf("%q", instruction.Text).Wrap(err)
		}
		str, ok := snapshot.Get(source.StringID)
		if !ok {
			continue
		}

		moved := str
		moved.ID = target.StringID
		moved.Modified = ts
		copied := model.NewStringSet(targetComponent, lang, version).MustAdd(moved)
		if err := stage.Put(copied, true); err != nil {
			return nil, status.ErrExecute.Wrapf("%q", instruction.Text).Wrap(err)
		}

		if instruction.Verb == Move {
			gone := str
			gone.Modified = ts
			gone.Deleted = true
			deleted := model.NewStringSet(sourceComponent, lang, version).MustAdd(gone)
			if err := stage.Put(deleted, true); err != nil {
				return nil, status.ErrExecute.Wrapf("%q", instruction.Text).Wrap(err)
			}
		}

		e.logger.Debug("script instruction staged",
			zap.String("instruction", instruction.Text),
			zap.String("lang", lang),
			zap.Stringer("version", version),
		)
	}
	return stage, nil
}

// Run extracts the script from a commit message and executes its instructions on a version, as of some time.
//
// Every instruction is rebased and committed on its own, in order. Malformed or failing instructions do not
// prevent the remaining ones from running: their errors are combined in the returned error.
func (e *Engine) Run(ctx context.Context, message string, version model.Version, ts time.Time, meta map[string]string) ([]core.CommitResult, error) {
	if ts.IsZero() {
		ts = e.repo.Now()
	}

	var (
		results []core.CommitResult
		errs    error
	)
	for text := range Extract(message) {
		instruction, err := Parse(text)
		if err != nil {
			e.metrics.ScriptInstructions.WithLabelValues(verbLabel(text), outcomeMalformed).Inc()
			e.logger.Warn("skipping malformed script instruction", zap.String("instruction", text), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}

		res, err := e.runOne(ctx, instruction, message, version, ts, meta)
		if err != nil {
			e.metrics.ScriptInstructions.WithLabelValues(string(instruction.Verb), outcomeFailed).Inc()
			errs = multierr.Append(errs, err)
			continue
		}
		e.metrics.ScriptInstructions.WithLabelValues(string(instruction.Verb), outcomeExecuted).Inc()
		if res.ID != "" {
			results = append(results, res)
		}
	}
	return results, errs
}

func (e *Engine) runOne(ctx context.Context, instruction Instruction, message string, version model.Version, ts time.Time, meta map[string]string) (core.CommitResult, error) {
	stage, err := e.Execute(ctx, instruction, version, ts)
	if err != nil {
		return core.CommitResult{}, err
	}
	if err = stage.Rebase(ctx, core.RebaseAt(ts)); err != nil {
		return core.CommitResult{}, status.ErrExecute.Wrapf("%q", instruction.Text).WrapWithLog(e.logger, err)
	}

	res, err := stage.Commit(ctx, message, meta, core.SkipRebase(), core.CommitAt(ts), core.Source(e.source))
	if err != nil {
		return core.CommitResult{}, status.ErrExecute.Wrapf("%q", instruction.Text).WrapWithLog(e.logger, err)
	}

	e.logger.Info("script instruction executed",
		zap.String("instruction", instruction.Text),
		zap.Stringer("version", version),
		zap.String("commit", res.ID),
		zap.Int("records", res.Records),
	)
	return res, nil
}

func verbLabel(text string) string {
	if m := instructionRex.FindStringSubmatch(text); m != nil {
		switch Verb(m[1]) {
		case Move, Copy:
			return m[1]
		}
	}
	return "unknown"
}

// IsMalformed tells if an error returned by Run or Parse involves a malformed instruction
func IsMalformed(err error) bool {
	for _, e := range multierr.Errors(err) {
		if errors.Is(e, status.ErrMalformedScript) {
			return true
		}
	}
	return false
}
