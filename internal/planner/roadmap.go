package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// Thresholds for the blast-radius risk rules. The high rule fires strictly
// above HighRiskFileCount.
const (
	MediumRiskFileCount = 5
	HighRiskFileCount   = 20
)

// Static scaffolding attached to every roadmap; not derived from content.
var (
	acceptanceCriteria = []string{
		"Every step's completion criteria are met.",
		"No regressions in existing behavior.",
		"Changes stay within each step's declared file scope.",
	}
	verificationSteps = []string{
		"Run the typechecker and fix any new errors.",
		"Run the linter and fix any new warnings.",
		"Run the unit test suite and keep it green.",
	}
)

// BuildRoadmap deterministically derives the final plan document from the
// validated steps: deduplicated file-set unions, independent risk rules
// (all applicable rules fire), static verification scaffolding, and summary
// notes. No hidden randomness; identical input yields identical output up
// to the generation timestamp.
func BuildRoadmap(steps []models.PlanStep, prdHash, prdSource, engine string) *models.Roadmap {
	modify := unionFiles(steps, func(s models.PlanStep) []string { return s.FilesToModify })
	create := unionFiles(steps, func(s models.PlanStep) []string { return s.FilesToCreate })
	touch := unionFiles(steps, func(s models.PlanStep) []string { return s.FilesToTouch })
	totalFiles := len(modify) + len(create) + len(touch)

	var risks []models.Risk
	if totalFiles > HighRiskFileCount {
		risks = append(risks, models.Risk{
			Severity:    "high",
			Description: fmt.Sprintf("Large blast radius: %d files affected. Consider splitting the rollout.", totalFiles),
		})
	}
	if hasArea(steps, models.AreaAuth) {
		risks = append(risks, models.Risk{
			Severity:    "high",
			Description: "Auth changes can break access control. Review auth steps with extra care.",
		})
	}
	if totalFiles > MediumRiskFileCount && totalFiles <= HighRiskFileCount {
		risks = append(risks, models.Risk{
			Severity:    "medium",
			Description: fmt.Sprintf("Moderate blast radius: %d files affected.", totalFiles),
		})
	}
	if risks == nil {
		risks = []models.Risk{}
	}

	areas := map[models.Area]struct{}{}
	totalHours := 0.0
	for _, s := range steps {
		areas[s.Area] = struct{}{}
		totalHours += s.DurationHours
	}

	return &models.Roadmap{
		PRDHash:            prdHash,
		PRDSource:          prdSource,
		GeneratedAt:        time.Now().UTC(),
		Steps:              steps,
		Files:              models.FileImpact{Modify: modify, Create: create, Touch: touch},
		AcceptanceCriteria: acceptanceCriteria,
		VerificationSteps:  verificationSteps,
		Risks:              risks,
		OpenQuestions:      []string{},
		Notes: fmt.Sprintf("Generated by %s: %d steps across %d areas, ~%.1f hours total.",
			engine, len(steps), len(areas), totalHours),
	}
}

func unionFiles(steps []models.PlanStep, pick func(models.PlanStep) []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range steps {
		for _, f := range pick(s) {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func hasArea(steps []models.PlanStep, area models.Area) bool {
	for _, s := range steps {
		if s.Area == area {
			return true
		}
	}
	return false
}
