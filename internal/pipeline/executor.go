package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/klytics/xlkit/internal/workbook"
)

// ActionFunc applies one step to an open session.
type ActionFunc func(ctx context.Context, s *workbook.Session, step Step) (workbook.Result, error)

// Executor runs pipeline steps sequentially against one session.
type Executor struct {
	actions map[string]ActionFunc
	log     *logrus.Logger
	dryRun  bool
	onStep  func(StepResult)
}

// NewExecutor creates a pipeline executor. A nil logger discards output.
func NewExecutor(log *logrus.Logger) *Executor {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Executor{
		actions: make(map[string]ActionFunc),
		log:     log,
	}
}

// SetDryRun enables dry-run mode: steps run against the loaded workbook but
// Apply never saves it.
func (e *Executor) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// OnStep sets a callback invoked after every step, failed or not.
func (e *Executor) OnStep(fn func(StepResult)) {
	e.onStep = fn
}

// RegisterAction adds an action handler to the executor's registry.
func (e *Executor) RegisterAction(name string, fn ActionFunc) {
	e.actions[name] = fn
}

// Apply loads the workbook behind h, runs every step and saves once. Nothing
// is saved when a step aborts the run or in dry-run mode, including a
// workbook that CreateIfMissing would have created.
func (e *Executor) Apply(ctx context.Context, h *workbook.Handle, p *Pipeline) ([]StepResult, error) {
	begin := h.Begin
	if p.CreateIfMissing {
		if _, err := os.Stat(h.Path()); errors.Is(err, os.ErrNotExist) {
			e.log.WithField("path", h.Path()).Debug("workbook missing, starting from an empty one")
			begin = h.BeginEmpty
		}
	}

	s, err := begin()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	results, err := e.Run(ctx, s, p)
	if err != nil {
		return results, err
	}

	if e.dryRun {
		e.log.WithField("path", h.Path()).Info("dry run: workbook not saved")
		return results, nil
	}
	if err := s.Commit(); err != nil {
		return results, err
	}
	return results, nil
}

// Run executes all steps in order against s. It does not commit.
func (e *Executor) Run(ctx context.Context, s *workbook.Session, p *Pipeline) ([]StepResult, error) {
	var results []StepResult

	e.log.WithFields(logrus.Fields{"pipeline": p.Name, "steps": len(p.Steps)}).Debug("running pipeline")

	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		resolved := e.resolveStepVariables(step)
		entry := e.log.WithFields(logrus.Fields{
			"step":   fmt.Sprintf("%d/%d", i+1, len(p.Steps)),
			"id":     resolved.ID,
			"action": resolved.Action,
		})

		action, ok := e.actions[resolved.Action]
		if !ok {
			err := fmt.Errorf("unknown action %q in step %q — registered actions: %v",
				resolved.Action, resolved.ID, e.actionNames())
			results = e.record(results, StepResult{StepID: resolved.ID, Error: err})
			if resolved.OnFailure == "skip" {
				entry.WithError(err).Warn("skipping step")
				continue
			}
			return results, err
		}

		start := time.Now()
		res, err := action(ctx, s, resolved)
		results = e.record(results, StepResult{StepID: resolved.ID, Result: res, Error: err})

		entry.WithFields(logrus.Fields{
			"outcome":  res.Outcome.String(),
			"duration": time.Since(start).Round(time.Microsecond),
		}).Debug(res.Message)

		if err != nil {
			if resolved.OnFailure == "skip" {
				entry.WithError(err).Warn("step failed, skipping")
				continue
			}
			return results, fmt.Errorf("step %q failed: %w", resolved.ID, err)
		}
	}

	return results, nil
}

func (e *Executor) record(results []StepResult, r StepResult) []StepResult {
	if e.onStep != nil {
		e.onStep(r)
	}
	return append(results, r)
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

func (e *Executor) resolveStepVariables(step Step) Step {
	resolved := step
	resolved.Sheet = e.interpolate(step.Sheet)
	resolved.Cell = e.interpolate(step.Cell)
	resolved.To = e.interpolate(step.To)
	if v, ok := step.Value.(string); ok {
		resolved.Value = e.interpolate(v)
	}
	return resolved
}

func (e *Executor) interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		switch {
		case expr == "date.today":
			return time.Now().Format("2006-01-02")
		case expr == "date.now" || expr == "date.timestamp":
			return time.Now().Format(time.RFC3339)
		case strings.HasPrefix(expr, "env."):
			return os.Getenv(strings.TrimPrefix(expr, "env."))
		}

		return match
	})
}

func (e *Executor) actionNames() []string {
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
