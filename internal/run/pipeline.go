package run

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/artifacts"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/planner"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/prdtext"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/providers/llm"
)

// Pipeline drives one run through its state machine:
//
//	created -> loading_inputs -> generating_subtasks -> generating_prompts -> complete
//
// with error reachable from any non-terminal state. Exactly one goroutine
// per run calls Execute; everything else only reads through the store.
type Pipeline struct {
	Store     Store
	Invoker   *llm.Invoker
	OutputDir string
	Logger    *zap.Logger
}

func NewPipeline(store Store, invoker *llm.Invoker, outputDir string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Store: store, Invoker: invoker, OutputDir: outputDir, Logger: logger}
}

// Engine is the generator identity string recorded in run outputs.
func (p *Pipeline) Engine() string {
	return "planweaver/" + p.Invoker.Client.Name()
}

// NewSession registers a fresh session in the created state.
func (p *Pipeline) NewSession(id, dnaDir, impactDir string) (*models.RunSession, error) {
	now := time.Now().UTC()
	s := &models.RunSession{
		ID:        id,
		Status:    models.StatusCreated,
		DNADir:    dnaDir,
		ImpactDir: impactDir,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Store.Create(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute runs the whole pipeline for one session. It never returns an
// error: failures are terminal state transitions observed by polling.
func (p *Pipeline) Execute(ctx context.Context, id string) {
	log := p.Logger.With(zap.String("run", id))

	// loading_inputs
	p.transition(id, models.StatusLoadingInputs)
	sess, ok := p.Store.Get(id)
	if !ok {
		log.Error("session vanished before execution")
		return
	}

	dna, dnaWarnings := artifacts.LoadDNA(sess.DNADir)
	impact, prdPath, impactWarnings, err := artifacts.LoadImpact(sess.ImpactDir)
	if err != nil {
		p.fail(id, err)
		return
	}
	warnings := append(dnaWarnings, impactWarnings...)

	prdText := ""
	if prdPath != "" {
		if !filepath.IsAbs(prdPath) {
			prdPath = filepath.Join(sess.ImpactDir, prdPath)
		}
		if text, err := prdtext.Normalize(prdPath); err != nil {
			warnings = append(warnings, "requirements text unavailable: "+err.Error())
		} else {
			prdText = text
		}
	}
	for _, w := range warnings {
		log.Warn("artifact warning", zap.String("warning", w))
	}

	p.Store.Update(id, func(s *models.RunSession) {
		s.DNA = dna
		s.Impact = impact
		s.PRDText = prdText
		s.Warnings = warnings
		s.Status = models.StatusGeneratingSubtasks
		s.UpdatedAt = time.Now().UTC()
	})

	// generating_subtasks
	raw, err := p.Invoker.Invoke(ctx, planner.BuildSubtaskPrompt(dna, impact, prdText))
	if err != nil {
		p.fail(id, err)
		return
	}
	entries, err := planner.DecodeArray(raw, "subtasks")
	if err != nil {
		p.fail(id, err)
		return
	}
	steps := planner.PruneDanglingDeps(planner.CoerceSteps(entries, log), log)
	// Zero validated steps is degenerate but legal; the run proceeds and
	// completes with an empty roadmap.
	log.Info("subtasks validated", zap.Int("count", len(steps)))

	p.Store.Update(id, func(s *models.RunSession) {
		s.Steps = steps
		s.Status = models.StatusGeneratingPrompts
		s.UpdatedAt = time.Now().UTC()
	})

	// generating_prompts
	rawPack, err := p.Invoker.Invoke(ctx, planner.BuildPromptPackPrompt(steps, dna))
	if err != nil {
		p.fail(id, err)
		return
	}
	packEntries, err := planner.DecodeArray(rawPack, "prompts")
	if err != nil {
		p.fail(id, err)
		return
	}
	prompts := planner.CoercePrompts(packEntries, steps, log)
	roadmap := planner.BuildRoadmap(steps, impact.PRDHash, impact.PRDSource, p.Engine())

	outDir := filepath.Join(p.OutputDir, id)
	finished := time.Now().UTC()
	meta := Metadata{
		ID:         id,
		DNADir:     sess.DNADir,
		ImpactDir:  sess.ImpactDir,
		StartedAt:  sess.CreatedAt,
		FinishedAt: finished,
		DurationMS: finished.Sub(sess.CreatedAt).Milliseconds(),
		Status:     models.StatusComplete,
		Engine:     p.Engine(),
	}
	if err := WriteOutputs(outDir, roadmap, prompts, meta); err != nil {
		p.fail(id, err)
		return
	}

	p.Store.Update(id, func(s *models.RunSession) {
		s.Roadmap = roadmap
		s.Prompts = prompts
		s.OutputDir = outDir
		s.OutputWritten = true
		s.Status = models.StatusComplete
		s.UpdatedAt = finished
		s.FinishedAt = &finished
	})
	log.Info("run complete",
		zap.Int("steps", len(steps)),
		zap.Int("prompts", len(prompts)),
		zap.String("output", outDir))
}

func (p *Pipeline) transition(id string, status models.RunStatus) {
	p.Store.Update(id, func(s *models.RunSession) {
		if s.Status.Terminal() {
			return
		}
		s.Status = status
		s.UpdatedAt = time.Now().UTC()
	})
}

// fail records the error message verbatim and parks the run in its
// terminal error state. No partial output is written.
func (p *Pipeline) fail(id string, err error) {
	p.Logger.Error("run failed", zap.String("run", id), zap.Error(err))
	now := time.Now().UTC()
	p.Store.Update(id, func(s *models.RunSession) {
		if s.Status.Terminal() {
			return
		}
		s.Status = models.StatusError
		s.Error = err.Error()
		s.UpdatedAt = now
		s.FinishedAt = &now
	})
}
