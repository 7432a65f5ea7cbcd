package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// DecodeArray parses raw model output expected to be a single JSON object
// and returns the array under key. Malformed JSON or a missing/non-array
// key is a hard failure; the caller fails the run rather than retrying,
// since a content failure is not a network symptom. Non-object array
// entries are dropped here so coercion only sees objects.
func DecodeArray(raw, key string) ([]map[string]any, error) {
	text := normalizeModelJSON(raw)
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	v, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("model output missing %q array", key)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("model output field %q is not an array", key)
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, nil) // keeps entry indices stable for ID synthesis
		}
	}
	return out, nil
}

// CoerceSteps turns loosely-typed entries into strict PlanSteps. The policy
// is coerce-don't-reject: bad enums get safe defaults, non-array lists
// become empty, durations are clamped, and only entries missing both
// identity fields (title and description) are dropped. The ID counter
// advances per input entry, so a dropped entry skips its number instead of
// renumbering the rest.
func CoerceSteps(entries []map[string]any, logger *zap.Logger) []models.PlanStep {
	if logger == nil {
		logger = zap.NewNop()
	}
	steps := make([]models.PlanStep, 0, len(entries))
	for i, e := range entries {
		if e == nil {
			logger.Warn("subtask entry dropped: not an object", zap.Int("index", i))
			continue
		}
		title := getString(e, "title")
		description := getString(e, "description")
		if title == "" || description == "" {
			logger.Warn("subtask entry dropped: missing title or description", zap.Int("index", i))
			continue
		}

		area := models.Area(getString(e, "area"))
		if !models.ValidArea(area) {
			logger.Debug("subtask area coerced", zap.Int("index", i), zap.String("from", string(area)))
			area = models.AreaUnknown
		}
		kind := models.StepKind(getString(e, "kind"))
		if !models.ValidKind(kind) {
			logger.Debug("subtask kind coerced", zap.Int("index", i), zap.String("from", string(kind)))
			kind = models.KindModify
		}

		id := getString(e, "id")
		if id == "" {
			id = fmt.Sprintf("%s-step-%d", areaSlug(area), i+1)
		}

		steps = append(steps, models.PlanStep{
			ID:                 id,
			Title:              title,
			Description:        description,
			Area:               area,
			Kind:               kind,
			FilesToModify:      getStringList(e, "filesToModify"),
			FilesToCreate:      getStringList(e, "filesToCreate"),
			FilesToTouch:       getStringList(e, "filesToTouch"),
			DependsOnStepIDs:   getStringList(e, "dependsOnStepIds"),
			Rationale:          getStringList(e, "rationale"),
			Checklist:          getStringList(e, "checklist"),
			CompletionCriteria: getStringList(e, "completionCriteria"),
			DurationHours:      getHours(e, "durationHours"),
		})
	}
	return dedupeStepIDs(steps)
}

// PruneDanglingDeps drops dependsOnStepIds references that point outside
// the validated step set. The generator never guaranteed referential
// integrity; pruning keeps every step executable.
func PruneDanglingDeps(steps []models.PlanStep, logger *zap.Logger) []models.PlanStep {
	if logger == nil {
		logger = zap.NewNop()
	}
	known := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		known[s.ID] = struct{}{}
	}
	for i := range steps {
		kept := steps[i].DependsOnStepIDs[:0]
		for _, dep := range steps[i].DependsOnStepIDs {
			if _, ok := known[dep]; ok && dep != steps[i].ID {
				kept = append(kept, dep)
			} else {
				logger.Warn("pruned dangling dependency",
					zap.String("step", steps[i].ID), zap.String("dependsOn", dep))
			}
		}
		steps[i].DependsOnStepIDs = kept
	}
	return steps
}

// CoercePrompts turns loosely-typed entries into strict AgentPrompts.
// An entry whose stepId does not match a validated step is dropped.
func CoercePrompts(entries []map[string]any, steps []models.PlanStep, logger *zap.Logger) []models.AgentPrompt {
	if logger == nil {
		logger = zap.NewNop()
	}
	byID := make(map[string]models.PlanStep, len(steps))
	for _, s := range steps {
		byID[s.ID] = s
	}
	prompts := make([]models.AgentPrompt, 0, len(entries))
	seen := map[string]struct{}{}
	for i, e := range entries {
		if e == nil {
			logger.Warn("prompt entry dropped: not an object", zap.Int("index", i))
			continue
		}
		stepID := getString(e, "stepId")
		step, ok := byID[stepID]
		if !ok {
			logger.Warn("prompt entry dropped: unknown stepId", zap.Int("index", i), zap.String("stepId", stepID))
			continue
		}
		if _, dup := seen[stepID]; dup {
			logger.Warn("prompt entry dropped: duplicate stepId", zap.String("stepId", stepID))
			continue
		}
		seen[stepID] = struct{}{}

		title := getString(e, "title")
		if title == "" {
			title = step.Title
		}
		var pctx models.PromptContext
		if c, ok := e["context"].(map[string]any); ok {
			pctx = models.PromptContext{
				PRDExcerpt:    getString(c, "prdExcerpt"),
				ImpactedFiles: getStringList(c, "impactedFiles"),
				Conventions:   getStringList(c, "conventions"),
				Constraints:   getStringList(c, "constraints"),
				Evidence:      getStringList(c, "evidence"),
			}
		} else {
			pctx = models.PromptContext{
				ImpactedFiles: []string{},
				Conventions:   []string{},
				Constraints:   []string{},
				Evidence:      []string{},
			}
		}
		prompts = append(prompts, models.AgentPrompt{
			StepID:       stepID,
			Title:        title,
			System:       getString(e, "system"),
			Context:      pctx,
			Instructions: getStringList(e, "instructions"),
			Guardrails:   getStringList(e, "guardrails"),
			Deliverables: getStringList(e, "deliverables"),
		})
	}
	return prompts
}

// normalizeModelJSON strips markdown code fences and, when the result does
// not start with an object, extracts the first balanced {...} span.
func normalizeModelJSON(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	if !strings.HasPrefix(t, "{") {
		if obj := extractJSONObject(t); obj != "" {
			return obj
		}
	}
	return t
}

// extractJSONObject finds the first top-level {...} span by brace depth.
// Crude (ignores braces inside strings) but matches what generative output
// needs in practice.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// dedupeStepIDs renames colliding IDs with a numeric suffix, probing until
// the candidate is unused so a rename cannot collide with a later explicit ID.
func dedupeStepIDs(steps []models.PlanStep) []models.PlanStep {
	seen := make(map[string]struct{}, len(steps))
	for i := range steps {
		id := steps[i].ID
		if _, taken := seen[id]; taken {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", id, n)
				if _, taken := seen[candidate]; !taken {
					id = candidate
					break
				}
			}
		}
		seen[id] = struct{}{}
		steps[i].ID = id
	}
	return steps
}

func areaSlug(a models.Area) string {
	s := strings.ToLower(string(a))
	s = strings.ReplaceAll(s, "/", "-")
	return strings.ReplaceAll(s, " ", "-")
}

func getString(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func getStringList(m map[string]any, key string) []string {
	arr, ok := m[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func getHours(m map[string]any, key string) float64 {
	switch t := m[key].(type) {
	case float64:
		return models.ClampHours(t)
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%g", &f); err == nil {
			return models.ClampHours(f)
		}
	}
	return 1
}
