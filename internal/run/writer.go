package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
)

// Output file names within a run's output directory.
const (
	RoadmapFile  = "roadmap.json"
	PromptsFile  = "prompts.json"
	MetadataFile = "run.json"
)

// Metadata is the per-run record written next to the roadmap and prompts.
type Metadata struct {
	ID         string           `json:"id"`
	DNADir     string           `json:"dnaDir"`
	ImpactDir  string           `json:"impactDir"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	DurationMS int64            `json:"durationMs"`
	Status     models.RunStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	Engine     string           `json:"engine"`
}

// WriteOutputs serializes the run's artifacts to its run-unique directory.
// Called once, by the owning pipeline goroutine, only for successful runs.
// A failed write removes the directory so no partial output survives.
func WriteOutputs(dir string, roadmap *models.Roadmap, prompts []models.AgentPrompt, meta Metadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if prompts == nil {
		prompts = []models.AgentPrompt{}
	}
	err := writeJSON(filepath.Join(dir, RoadmapFile), roadmap)
	if err == nil {
		err = writeJSON(filepath.Join(dir, PromptsFile), prompts)
	}
	if err == nil {
		err = writeJSON(filepath.Join(dir, MetadataFile), meta)
	}
	if err != nil {
		os.RemoveAll(dir)
		return err
	}
	return nil
}

// ReadRoadmap loads a previously written roadmap back from disk.
func ReadRoadmap(dir string) (*models.Roadmap, error) {
	b, err := os.ReadFile(filepath.Join(dir, RoadmapFile))
	if err != nil {
		return nil, err
	}
	var r models.Roadmap
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
