package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

func stepWithFiles(id string, area models.Area, modify, create, touch []string) models.PlanStep {
	return models.PlanStep{
		ID:            id,
		Title:         id,
		Description:   "d",
		Area:          area,
		Kind:          models.KindModify,
		FilesToModify: modify,
		FilesToCreate: create,
		FilesToTouch:  touch,
		DurationHours: 2,
	}
}

func nFiles(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%s/file%02d.ts", prefix, i))
	}
	return out
}

func severities(risks []models.Risk) []string {
	out := make([]string, 0, len(risks))
	for _, r := range risks {
		out = append(out, r.Severity)
	}
	return out
}

func TestBuildRoadmapDeduplicatesFileSets(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaUI, []string{"x.ts", "y.ts"}, nil, nil),
		stepWithFiles("b", models.AreaUI, []string{"y.ts", "x.ts"}, []string{"new.ts"}, nil),
	}
	r := BuildRoadmap(steps, "h", "", "planweaver/mock")
	assert.Equal(t, []string{"x.ts", "y.ts"}, r.Files.Modify)
	assert.Equal(t, []string{"new.ts"}, r.Files.Create)
	assert.Empty(t, r.Files.Touch)
}

func TestBuildRoadmapExactlyTwentyFilesIsMediumOnly(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaUI, nFiles("m", 20), nil, nil),
	}
	r := BuildRoadmap(steps, "h", "", "planweaver/mock")
	require.Len(t, r.Risks, 1)
	assert.Equal(t, "medium", r.Risks[0].Severity)
}

func TestBuildRoadmapTwentyOneFilesIsHighOnly(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaUI, nFiles("m", 21), nil, nil),
	}
	r := BuildRoadmap(steps, "h", "", "planweaver/mock")
	require.Len(t, r.Risks, 1)
	assert.Equal(t, "high", r.Risks[0].Severity)
}

func TestBuildRoadmapAuthRiskFiresIndependently(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaAuth, nFiles("m", 21), nil, nil),
	}
	r := BuildRoadmap(steps, "h", "", "planweaver/mock")
	// both rules fire, not a priority chain
	assert.Equal(t, []string{"high", "high"}, severities(r.Risks))

	found := false
	for _, risk := range r.Risks {
		if risk.Severity == "high" && risk.Description == "Auth changes can break access control. Review auth steps with extra care." {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBuildRoadmapFewFilesNoRisks(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaUI, nFiles("m", 5), nil, nil),
	}
	r := BuildRoadmap(steps, "h", "", "planweaver/mock")
	assert.Empty(t, r.Risks)
}

func TestBuildRoadmapIdempotent(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaAuth, nFiles("m", 3), nFiles("c", 2), nFiles("t", 4)),
		stepWithFiles("b", models.AreaTypes, nFiles("m", 3), nil, nil),
	}
	r1 := BuildRoadmap(steps, "h", "src", "planweaver/mock")
	r2 := BuildRoadmap(steps, "h", "src", "planweaver/mock")
	assert.Equal(t, r1.Files, r2.Files)
	assert.Equal(t, r1.Risks, r2.Risks)
	assert.Equal(t, r1.Notes, r2.Notes)
}

func TestBuildRoadmapStaticScaffoldingAndNotes(t *testing.T) {
	steps := []models.PlanStep{
		stepWithFiles("a", models.AreaTypes, []string{"x.ts"}, nil, nil),
		stepWithFiles("b", models.AreaTests, nil, []string{"x.test.ts"}, nil),
	}
	r := BuildRoadmap(steps, "hash9", "docs/prd.md", "planweaver/openai")
	assert.Equal(t, "hash9", r.PRDHash)
	assert.Equal(t, "docs/prd.md", r.PRDSource)
	assert.Len(t, r.VerificationSteps, 3)
	assert.NotEmpty(t, r.AcceptanceCriteria)
	assert.Empty(t, r.OpenQuestions)
	assert.Contains(t, r.Notes, "planweaver/openai")
	assert.Contains(t, r.Notes, "2 steps across 2 areas")
	assert.Contains(t, r.Notes, "4.0 hours")
}

func TestBuildRoadmapEmptyStepsStillValid(t *testing.T) {
	r := BuildRoadmap(nil, "h", "", "planweaver/mock")
	assert.Empty(t, r.Steps)
	assert.Empty(t, r.Risks)
	assert.Equal(t, []string{}, r.Files.Modify)
	assert.Contains(t, r.Notes, "0 steps")
}
