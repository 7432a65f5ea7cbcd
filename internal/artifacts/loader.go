// Package artifacts reads the two upstream artifact sets (codebase DNA and
// impact analysis) into typed summaries. Missing optional files become empty
// values plus a warning; only a missing impact analysis is a hard error.
package artifacts

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// ErrMissingImpact is wrapped into the error returned when the mandatory
// impact-analysis document cannot be read.
var ErrMissingImpact = errors.New("impact analysis artifact missing")

// Well-known artifact file names within the upstream run directories.
const (
	FilesFile       = "files.jsonl"
	StackFile       = "stack.json"
	ConventionsFile = "conventions.json"
	RulesFile       = "rules.json"
	TokensFile      = "tokens.json"
	GuidanceFile    = "guidance.md"
	DirectivesFile  = "directives.json"
	ImpactFile      = "impact.json"
	QuestionsFile   = "questions.json"
	AnswersFile     = "answers.json"
	RunMetaFile     = "run.json"
)

// LoadDNA reads the stage-one artifact directory. It never fails: every
// missing or malformed file is substituted with an empty value and recorded
// as a warning.
func LoadDNA(dir string) (*models.CodebaseDNA, []string) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	dna := &models.CodebaseDNA{}

	files, fileWarnings := loadFileList(filepath.Join(dir, FilesFile))
	warnings = append(warnings, fileWarnings...)
	dna.Files = files

	dna.Stack = loadObject(filepath.Join(dir, StackFile), warn)
	dna.Conventions = loadObject(filepath.Join(dir, ConventionsFile), warn)
	dna.Rules = loadObject(filepath.Join(dir, RulesFile), warn)
	dna.Tokens = loadObject(filepath.Join(dir, TokensFile), warn)
	dna.Directives = loadObject(filepath.Join(dir, DirectivesFile), warn)

	if b, err := os.ReadFile(filepath.Join(dir, GuidanceFile)); err == nil {
		dna.Guidance = string(b)
	} else {
		warn("guidance document unavailable (%s): %v", GuidanceFile, err)
	}

	return dna, warnings
}

// LoadImpact reads the stage-two artifact directory. The impact document
// itself is mandatory; questions, answers and run metadata are optional.
// The returned string is the PRD path recorded in the run metadata ("" when
// absent). Scores and confidences are clamped into [0,1] on load.
func LoadImpact(dir string) (*models.ImpactAnalysis, string, []string, error) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	impactPath := filepath.Join(dir, ImpactFile)
	b, err := os.ReadFile(impactPath)
	if err != nil {
		return nil, "", warnings, fmt.Errorf("%w: %s: %v", ErrMissingImpact, impactPath, err)
	}
	var impact models.ImpactAnalysis
	if err := json.Unmarshal(b, &impact); err != nil {
		return nil, "", warnings, fmt.Errorf("%w: %s: %v", ErrMissingImpact, impactPath, err)
	}

	for i := range impact.Files {
		impact.Files[i].Score = models.ClampScore(impact.Files[i].Score)
		if r := impact.Files[i].Role; r != "primary" && r != "secondary" {
			warn("file %s has role %q, coerced to secondary", impact.Files[i].Path, r)
			impact.Files[i].Role = "secondary"
		}
	}
	for i := range impact.Areas {
		impact.Areas[i].Confidence = models.ClampScore(impact.Areas[i].Confidence)
	}

	if len(impact.Questions) == 0 {
		impact.Questions = loadQuestionPairs(dir, warn)
	}

	prdPath := ""
	metaPath := filepath.Join(dir, RunMetaFile)
	if mb, err := os.ReadFile(metaPath); err == nil {
		var meta struct {
			PRDPath string `json:"prdPath"`
		}
		if err := json.Unmarshal(mb, &meta); err != nil {
			warn("run metadata unparsable (%s): %v", RunMetaFile, err)
		} else {
			prdPath = meta.PRDPath
		}
	} else {
		warn("run metadata unavailable (%s): %v", RunMetaFile, err)
	}

	return &impact, prdPath, warnings, nil
}

// loadFileList parses a newline-delimited JSON file list. Each line is
// either a JSON string or an object with a "path" field; malformed lines
// are skipped, not fatal.
func loadFileList(path string) ([]string, []string) {
	var warnings []string
	f, err := os.Open(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("file list unavailable (%s): %v", filepath.Base(path), err)}
	}
	defer f.Close()

	var files []string
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(line, &v); err != nil {
			skipped++
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				files = append(files, t)
			}
		case map[string]any:
			if p, ok := t["path"].(string); ok && p != "" {
				files = append(files, p)
			} else {
				skipped++
			}
		default:
			skipped++
		}
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("file list: skipped %d malformed line(s)", skipped))
	}
	if err := sc.Err(); err != nil {
		warnings = append(warnings, fmt.Sprintf("file list: read aborted: %v", err))
	}
	return files, warnings
}

func loadObject(path string, warn func(string, ...any)) map[string]any {
	b, err := os.ReadFile(path)
	if err != nil {
		warn("%s unavailable: %v", filepath.Base(path), err)
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		warn("%s unparsable: %v", filepath.Base(path), err)
		return map[string]any{}
	}
	return m
}

// loadQuestionPairs merges questions.json and answers.json positionally.
func loadQuestionPairs(dir string, warn func(string, ...any)) []models.ClarifyingQuestion {
	questions := loadStringArray(filepath.Join(dir, QuestionsFile), warn)
	answers := loadStringArray(filepath.Join(dir, AnswersFile), warn)
	if len(questions) == 0 {
		return nil
	}
	out := make([]models.ClarifyingQuestion, 0, len(questions))
	for i, q := range questions {
		cq := models.ClarifyingQuestion{Question: q}
		if i < len(answers) {
			cq.Answer = answers[i]
		}
		out = append(out, cq)
	}
	return out
}

func loadStringArray(path string, warn func(string, ...any)) []string {
	b, err := os.ReadFile(path)
	if err != nil {
		warn("%s unavailable: %v", filepath.Base(path), err)
		return nil
	}
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		warn("%s unparsable: %v", filepath.Base(path), err)
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			// tolerate {"question": "..."} / {"answer": "..."} object entries
			for _, key := range []string{"question", "answer", "text"} {
				if s, ok := t[key].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}
