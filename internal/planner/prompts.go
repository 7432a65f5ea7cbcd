// Package planner holds the pure computation of the run pipeline: the two
// prompt assemblers, the tolerant output validator, and the roadmap
// synthesizer. Nothing in this package does I/O.
package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// Budgets bounding prompt size.
const (
	prdCharBudget   = 3000
	fileListBudget  = 150
	contextEntryCap = 20
	contextValueCap = 150
)

// BuildSubtaskPrompt renders the codebase facts, the impact analysis and the
// requirements text into the subtask-decomposition instruction document.
// Deterministic given its inputs.
func BuildSubtaskPrompt(dna *models.CodebaseDNA, impact *models.ImpactAnalysis, prdText string) string {
	var b strings.Builder

	b.WriteString(`You are a senior tech lead decomposing a change request into an ordered implementation plan.
Output ONLY a JSON object of the form {"subtasks": [...]}, no prose, no code fences.

`)

	b.WriteString("## Codebase\n")
	if len(dna.Stack) > 0 {
		fmt.Fprintf(&b, "Stack: %s\n", compactJSON(dna.Stack))
	}
	writeKVSection(&b, "Conventions", dna.Conventions)
	writeKVSection(&b, "Architecture rules", dna.Rules)
	writeKVSection(&b, "Design tokens", dna.Tokens)
	writeKVSection(&b, "Directives", dna.Directives)
	if g := strings.TrimSpace(dna.Guidance); g != "" {
		fmt.Fprintf(&b, "Guidance:\n%s\n", truncate(g, prdCharBudget))
	}
	if len(dna.Files) > 0 {
		files := dna.Files
		if len(files) > fileListBudget {
			files = files[:fileListBudget]
		}
		fmt.Fprintf(&b, "Project files (%d of %d):\n", len(files), len(dna.Files))
		for _, f := range files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	b.WriteString("\n## Impact analysis\n")
	primary, secondary := 0, 0
	for _, f := range impact.Files {
		if f.Role == "primary" {
			primary++
		} else {
			secondary++
		}
	}
	fmt.Fprintf(&b, "Impacted files: %d primary, %d secondary\n", primary, secondary)
	for _, f := range sortedByScore(impact.Files) {
		fmt.Fprintf(&b, "- %s (score %.2f, %s)", f.Path, f.Score, f.Role)
		if len(f.Reasons) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(f.Reasons, "; "))
		}
		b.WriteString("\n")
	}
	if len(impact.Areas) > 0 {
		b.WriteString("Area confidences:\n")
		for _, a := range impact.Areas {
			fmt.Fprintf(&b, "- %s: %.2f", a.Area, a.Confidence)
			if len(a.Rationale) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(a.Rationale, "; "))
			}
			b.WriteString("\n")
		}
	}
	if len(impact.SuggestedFiles) > 0 {
		fmt.Fprintf(&b, "Suggested new files: %s\n", strings.Join(impact.SuggestedFiles, ", "))
	}
	for _, q := range impact.Questions {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", q.Question, emptyDash(q.Answer))
	}
	if n := strings.TrimSpace(impact.Notes); n != "" {
		fmt.Fprintf(&b, "Analyst notes: %s\n", n)
	}

	if p := strings.TrimSpace(prdText); p != "" {
		b.WriteString("\n## Requirements document (excerpt)\n")
		b.WriteString(truncate(p, prdCharBudget))
		b.WriteString("\n")
	}

	b.WriteString(`
## Rules
- Produce 3-12 subtasks. Each must be independently implementable.
- Honor this ordering (lower number first): 1 Types, 1 Build/Config, 2 API/Service, 3 State, 4 Hooks, 5 Routing, 5 UI, 6 Styling, 7 Tests.
- area must be one of: UI, Hooks, State, API/Service, Auth, Routing, Styling, Types, Tests, Build/Config, Unknown.
- kind must be one of: create, modify, refactor, config, test, docs.
- durationHours is a number between 0.5 and 40.
- dependsOnStepIds may only reference ids of other subtasks in this plan.

Schema for each subtask: {"id": "...", "title": "...", "description": "...", "area": "...", "kind": "...", "filesToModify": [...], "filesToCreate": [...], "filesToTouch": [...], "dependsOnStepIds": [...], "rationale": [...], "checklist": [...], "completionCriteria": [...], "durationHours": 2}
`)

	return b.String()
}

// BuildPromptPackPrompt renders the instruction document that asks for one
// agent prompt per validated subtask. Deterministic given its inputs.
func BuildPromptPackPrompt(steps []models.PlanStep, dna *models.CodebaseDNA) string {
	var b strings.Builder

	b.WriteString(`You are preparing self-contained prompts for autonomous coding agents, one per plan step.
Output ONLY a JSON object of the form {"prompts": [...]}, no prose, no code fences.

`)

	b.WriteString("## Plan steps\n")
	stepJSON, _ := json.MarshalIndent(steps, "", "  ")
	b.Write(stepJSON)
	b.WriteString("\n\n## Codebase context\n")
	writeKVSection(&b, "Conventions", dna.Conventions)
	writeKVSection(&b, "Architecture rules", dna.Rules)
	writeKVSection(&b, "Design tokens", dna.Tokens)

	b.WriteString(`
## Rules
- Produce exactly one prompt per step, with stepId matching the step's id.
- Each prompt must stand alone: an agent reading only that prompt can do the work.
- instructions is an ordered list of concrete actions; guardrails list what the agent must not do; deliverables list what it must hand over.

Schema for each prompt: {"stepId": "...", "title": "...", "system": "...", "context": {"prdExcerpt": "...", "impactedFiles": [...], "conventions": [...], "constraints": [...], "evidence": [...]}, "instructions": [...], "guardrails": [...], "deliverables": [...]}
`)

	return b.String()
}

func writeKVSection(b *strings.Builder, title string, m map[string]any) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > contextEntryCap {
		keys = keys[:contextEntryCap]
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %s\n", k, truncate(stringifyValue(m[k]), contextValueCap))
	}
}

func sortedByScore(files []models.ImpactedFile) []models.ImpactedFile {
	out := make([]models.ImpactedFile, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func compactJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// truncate cuts at the byte budget, backing up so a multi-byte rune is never
// split at the boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func emptyDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
