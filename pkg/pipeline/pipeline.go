package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

// Stage is one pure step: it never modifies its input table.
type Stage interface {
	Name() string
	Apply(t *core.Table) (*core.Table, error)
}

// StageFunc adapts a function into a Stage.
type StageFunc struct {
	Label string
	Fn    func(*core.Table) (*core.Table, error)
}

func (s StageFunc) Name() string                             { return s.Label }
func (s StageFunc) Apply(t *core.Table) (*core.Table, error) { return s.Fn(t) }

// Pipeline chains stages in order.
type Pipeline struct {
	steps  []Stage
	logger *slog.Logger
}

func NewPipeline(logger *slog.Logger, steps ...Stage) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{steps: steps, logger: logger}
}

// Names lists the stage names in execution order.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Name()
	}
	return out
}

// Run feeds the output of each stage into the next and stops at the first error.
func (p *Pipeline) Run(t *core.Table) (*core.Table, error) {
	for _, step := range p.steps {
		out, err := step.Apply(t)
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %s: %w", step.Name(), err)
		}
		r, c := out.Dims()
		p.logger.Debug("pipeline stage done",
			slog.String("stage", step.Name()),
			slog.Int("rows", r),
			slog.Int("cols", c))
		t = out
	}
	return t, nil
}
