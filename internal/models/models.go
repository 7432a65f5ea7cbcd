package models

import (
	"time"
)

// RunStatus is the lifecycle state of one planning run. Transitions only
// move forward; StatusComplete and StatusError are terminal.
type RunStatus string

const (
	StatusCreated            RunStatus = "created"
	StatusLoadingInputs      RunStatus = "loading_inputs"
	StatusGeneratingSubtasks RunStatus = "generating_subtasks"
	StatusGeneratingPrompts  RunStatus = "generating_prompts"
	StatusComplete           RunStatus = "complete"
	StatusError              RunStatus = "error"
)

// Terminal reports whether a run can no longer change state.
func (s RunStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Area is the closed set of codebase areas a plan step can belong to.
type Area string

const (
	AreaUI      Area = "UI"
	AreaHooks   Area = "Hooks"
	AreaState   Area = "State"
	AreaAPI     Area = "API/Service"
	AreaAuth    Area = "Auth"
	AreaRouting Area = "Routing"
	AreaStyling Area = "Styling"
	AreaTypes   Area = "Types"
	AreaTests   Area = "Tests"
	AreaBuild   Area = "Build/Config"
	AreaUnknown Area = "Unknown"
)

// Areas lists every valid area in the implementation order the planner is
// asked to honor (foundations first, tests last).
var Areas = []Area{
	AreaTypes, AreaBuild, AreaAPI, AreaState, AreaHooks,
	AreaRouting, AreaUI, AreaStyling, AreaAuth, AreaTests, AreaUnknown,
}

// ValidArea reports membership in the closed area set.
func ValidArea(a Area) bool {
	for _, v := range Areas {
		if v == a {
			return true
		}
	}
	return false
}

// StepKind is the closed set of change kinds.
type StepKind string

const (
	KindCreate   StepKind = "create"
	KindModify   StepKind = "modify"
	KindRefactor StepKind = "refactor"
	KindConfig   StepKind = "config"
	KindTest     StepKind = "test"
	KindDocs     StepKind = "docs"
)

// ValidKind reports membership in the closed kind set.
func ValidKind(k StepKind) bool {
	switch k {
	case KindCreate, KindModify, KindRefactor, KindConfig, KindTest, KindDocs:
		return true
	}
	return false
}

const (
	MinStepHours = 0.5
	MaxStepHours = 40.0
)

// ClampScore forces a score or confidence into [0,1].
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampHours forces a duration estimate into [MinStepHours, MaxStepHours].
func ClampHours(v float64) float64 {
	if v < MinStepHours {
		return MinStepHours
	}
	if v > MaxStepHours {
		return MaxStepHours
	}
	return v
}

// CodebaseDNA is the stage-one upstream summary: structured facts about the
// codebase the plan will be executed against. Immutable once loaded.
type CodebaseDNA struct {
	Files       []string       `json:"files"`
	Stack       map[string]any `json:"stack,omitempty"`
	Conventions map[string]any `json:"conventions,omitempty"`
	Rules       map[string]any `json:"rules,omitempty"`
	Tokens      map[string]any `json:"tokens,omitempty"`
	Guidance    string         `json:"guidance,omitempty"`
	Directives  map[string]any `json:"directives,omitempty"`
}

// ImpactedFile is one file the impact analysis flagged, with a relevance
// score in [0,1] and a primary/secondary role.
type ImpactedFile struct {
	Path    string   `json:"path"`
	Score   float64  `json:"score"`
	Role    string   `json:"role"`
	Reasons []string `json:"reasons,omitempty"`
	Matches []string `json:"matches,omitempty"`
}

// AreaConfidence pairs an area tag with the analyzer's confidence in [0,1].
type AreaConfidence struct {
	Area       string   `json:"area"`
	Confidence float64  `json:"confidence"`
	Rationale  []string `json:"rationale,omitempty"`
}

// ClarifyingQuestion is a question the impact stage raised about the PRD,
// with its (possibly empty) answer.
type ClarifyingQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// ImpactAnalysis is the stage-two upstream summary: the change request
// projected onto the codebase. The one mandatory input of a run.
type ImpactAnalysis struct {
	PRDHash        string               `json:"prdHash"`
	PRDSource      string               `json:"prdSource,omitempty"`
	Files          []ImpactedFile       `json:"files"`
	Areas          []AreaConfidence     `json:"areas,omitempty"`
	Questions      []ClarifyingQuestion `json:"questions,omitempty"`
	SuggestedFiles []string             `json:"suggestedFiles,omitempty"`
	Notes          string               `json:"notes,omitempty"`
}

// PlanStep is one atomic, ordered unit of implementation work.
type PlanStep struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Area               Area     `json:"area"`
	Kind               StepKind `json:"kind"`
	FilesToModify      []string `json:"filesToModify"`
	FilesToCreate      []string `json:"filesToCreate"`
	FilesToTouch       []string `json:"filesToTouch"`
	DependsOnStepIDs   []string `json:"dependsOnStepIds"`
	Rationale          []string `json:"rationale"`
	Checklist          []string `json:"checklist"`
	CompletionCriteria []string `json:"completionCriteria"`
	DurationHours      float64  `json:"durationHours"`
}

// PromptContext is the self-contained context bundle embedded in an agent
// prompt so the downstream coding agent needs no other inputs.
type PromptContext struct {
	PRDExcerpt    string   `json:"prdExcerpt,omitempty"`
	ImpactedFiles []string `json:"impactedFiles"`
	Conventions   []string `json:"conventions"`
	Constraints   []string `json:"constraints"`
	Evidence      []string `json:"evidence"`
}

// AgentPrompt is one executable instruction bundle tied to a plan step.
type AgentPrompt struct {
	StepID       string        `json:"stepId"`
	Title        string        `json:"title"`
	System       string        `json:"system"`
	Context      PromptContext `json:"context"`
	Instructions []string      `json:"instructions"`
	Guardrails   []string      `json:"guardrails"`
	Deliverables []string      `json:"deliverables"`
}

// Risk is one derived risk item on the roadmap.
type Risk struct {
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// FileImpact aggregates the deduplicated file sets across all steps.
type FileImpact struct {
	Modify []string `json:"modify"`
	Create []string `json:"create"`
	Touch  []string `json:"touch"`
}

// Roadmap is the final plan document derived from the validated steps.
type Roadmap struct {
	PRDHash            string     `json:"prdHash"`
	PRDSource          string     `json:"prdSource,omitempty"`
	GeneratedAt        time.Time  `json:"generatedAt"`
	Steps              []PlanStep `json:"steps"`
	Files              FileImpact `json:"files"`
	AcceptanceCriteria []string   `json:"acceptanceCriteria"`
	VerificationSteps  []string   `json:"verificationSteps"`
	Risks              []Risk     `json:"risks"`
	OpenQuestions      []string   `json:"openQuestions"`
	Notes              string     `json:"notes,omitempty"`
}

// RunSession is the mutable root entity for one run. It is mutated only by
// the single pipeline goroutine driving it; readers get store snapshots.
type RunSession struct {
	ID            string          `json:"id"`
	Status        RunStatus       `json:"status"`
	DNADir        string          `json:"dnaDir"`
	ImpactDir     string          `json:"impactDir"`
	DNA           *CodebaseDNA    `json:"-"`
	Impact        *ImpactAnalysis `json:"-"`
	PRDText       string          `json:"-"`
	Steps         []PlanStep      `json:"-"`
	Roadmap       *Roadmap        `json:"-"`
	Prompts       []AgentPrompt   `json:"-"`
	Warnings      []string        `json:"warnings,omitempty"`
	Error         string          `json:"error,omitempty"`
	OutputDir     string          `json:"outputDir,omitempty"`
	OutputWritten bool            `json:"outputWritten"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	FinishedAt    *time.Time      `json:"finishedAt,omitempty"`
}
