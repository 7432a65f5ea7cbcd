package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// MockClient is used when no real provider is configured. It sniffs the
// prompt for the required output key and returns minimal well-formed JSON,
// so the whole pipeline can run offline.
type MockClient struct{}

func (m *MockClient) Name() string { return "mock" }

var stepIDRe = regexp.MustCompile(`"id"\s*:\s*"([a-zA-Z0-9_\-]+)"`)

func (m *MockClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, `"prompts"`) {
		// one prompt per step id found in the embedded step list
		ids := stepIDRe.FindAllStringSubmatch(prompt, -1)
		var entries []string
		seen := map[string]struct{}{}
		for _, match := range ids {
			id := match[1]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			entries = append(entries, fmt.Sprintf(
				`{"stepId":%q,"title":"Implement step %s","system":"You are a careful implementation agent.","instructions":["Follow the step checklist."],"guardrails":["Do not touch unrelated files."],"deliverables":["Working code with tests."]}`,
				id, id))
		}
		return `{"prompts":[` + strings.Join(entries, ",") + `]}`, nil
	}
	return `{"subtasks":[{"id":"types-step-1","title":"Review impacted types","description":"Audit the flagged files and adjust shared types first.","area":"Types","kind":"modify","filesToModify":[],"filesToCreate":[],"filesToTouch":[],"dependsOnStepIds":[],"rationale":["Foundations before features."],"checklist":["Read the impacted files."],"completionCriteria":["Typecheck passes."],"durationHours":1}]}`, nil
}
