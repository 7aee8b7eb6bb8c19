package pipeline

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/climatrend/internal/apperr"
	"github.com/sartorproj/climatrend/internal/artifact"
)

// Status is the final state of a unit.
type Status string

// Unit statuses.
const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // every unit failed, or the run could not start
	ExitPartial = 2
)

// Unit is the summary entry of one unit of work.
type Unit struct {
	Stage     Stage          `yaml:"stage"`
	Name      string         `yaml:"name"`
	Status    Status         `yaml:"status"`
	Kind      string         `yaml:"kind,omitempty"`
	Error     string         `yaml:"error,omitempty"`
	Artifacts []string       `yaml:"artifacts,omitempty"`
	Seconds   float64        `yaml:"seconds"`
	Details   map[string]any `yaml:"details,omitempty"`
}

// newUnit classifies a finished unit. err means nothing was produced;
// artifactErr means the result exists but was not fully persisted.
func newUnit(stage Stage, name string, err, artifactErr error, artifacts []string, d time.Duration) Unit {
	u := Unit{
		Stage:     stage,
		Name:      name,
		Status:    StatusSucceeded,
		Artifacts: artifacts,
		Seconds:   d.Seconds(),
	}
	switch {
	case err != nil:
		u.Status = StatusFailed
		u.Kind = apperr.KindOf(err).String()
		u.Error = err.Error()
	case artifactErr != nil:
		u.Status = StatusPartial
		u.Kind = apperr.KindOf(artifactErr).String()
		u.Error = artifactErr.Error()
	}
	return u
}

// Summary describes one invocation.
type Summary struct {
	RunID      string    `yaml:"run_id"`
	Command    string    `yaml:"command"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Units      []Unit    `yaml:"units"`

	mu sync.Mutex
}

func (s *Summary) add(units ...Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Units = append(s.Units, units...)
}

// Counts returns the number of units per status.
func (s *Summary) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, u := range s.Units {
		counts[u.Status]++
	}
	return counts
}

// ExitCode is ExitOK when every unit succeeded, ExitFailure when every unit
// failed and ExitPartial otherwise.
func (s *Summary) ExitCode() int {
	counts := s.Counts()
	switch {
	case len(s.Units) > 0 && counts[StatusFailed] == len(s.Units):
		return ExitFailure
	case counts[StatusFailed] > 0 || counts[StatusPartial] > 0:
		return ExitPartial
	}
	return ExitOK
}

// Unit returns the entry for stage and name.
func (s *Summary) Unit(stage Stage, name string) (Unit, bool) {
	for _, u := range s.Units {
		if u.Stage == stage && u.Name == name {
			return u, true
		}
	}
	return Unit{}, false
}

// WriteYAML persists the summary at path.
func (s *Summary) WriteYAML(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	return artifact.WriteFile(path, data)
}

// ReadSummary decodes a summary written by WriteYAML.
func ReadSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode run summary: %w", err)
	}
	return &s, nil
}
