// Package contracts defines the records exchanged between the reporting session,
// its transports and the other surfaces (CLI, MCP, broker events).
package contracts

import (
	"fmt"
	"strings"
	"time"
)

// StepState is the outcome recorded on a single step.
type StepState string

const (
	StepInfo  StepState = "INFO"
	StepError StepState = "ERROR"
	StepPass  StepState = "PASS"
	StepFail  StepState = "FAIL"
)

// Valid reports whether s is one of the four known states.
func (s StepState) Valid() bool {
	switch s {
	case StepInfo, StepError, StepPass, StepFail:
		return true
	}
	return false
}

// ParseStepState converts a case-sensitive wire value into a StepState.
func ParseStepState(v string) (StepState, error) {
	s := StepState(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown step status %q", v)
	}
	return s, nil
}

// Artifact identifies a versioned deliverable that was under test in a build.
type Artifact struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Version    string `json:"version"`
}

// ParseArtifact parses "groupId:artifactId:version". Every part must be non-empty.
func ParseArtifact(v string) (Artifact, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Artifact{}, fmt.Errorf("invalid artifact %q: want groupId:artifactId:version", v)
	}
	return Artifact{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}, nil
}

// String returns the groupId:artifactId:version form.
func (a Artifact) String() string {
	return a.GroupID + ":" + a.ArtifactID + ":" + a.Version
}

// Build is a tagged run of the system under test. ID is assigned by the service.
type Build struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Team        string     `json:"team"`
	Environment string     `json:"environment"`
	Component   string     `json:"component"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	Start       time.Time  `json:"start,omitempty"`
}

// CreateBuildRequest carries the fields needed to register a new build.
type CreateBuildRequest struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
	Team        string `json:"team"`
	Component   string `json:"component"`
}

// Step is one reported assertion or observation.
type Step struct {
	Name         string    `json:"name"`
	Expected     string    `json:"expected,omitempty"`
	Actual       string    `json:"actual,omitempty"`
	Info         string    `json:"info,omitempty"`
	Status       StepState `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	ScreenshotID string    `json:"screenshot,omitempty"`
}

// Action is a named phase of a test holding ordered steps.
type Action struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	Steps []Step    `json:"steps"`
}

// Execution is one test's result, composed of actions.
type Execution struct {
	Title   string   `json:"title"`
	Suite   string   `json:"suite"`
	BuildID string   `json:"build"`
	Actions []Action `json:"actions"`
}

// Clone returns a deep copy so callers can never mutate the session's tree.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	out := &Execution{
		Title:   e.Title,
		Suite:   e.Suite,
		BuildID: e.BuildID,
		Actions: make([]Action, len(e.Actions)),
	}
	for i, a := range e.Actions {
		out.Actions[i] = Action{
			Name:  a.Name,
			Start: a.Start,
			Steps: append([]Step(nil), a.Steps...),
		}
		if out.Actions[i].Steps == nil {
			out.Actions[i].Steps = []Step{}
		}
	}
	return out
}

// StepCount returns the total number of steps across all actions.
func (e *Execution) StepCount() int {
	n := 0
	for _, a := range e.Actions {
		n += len(a.Steps)
	}
	return n
}

// Status derives the overall execution state from its steps:
// any FAIL wins, then ERROR, then PASS; an execution with only INFO steps is INFO.
func (e *Execution) Status() StepState {
	status := StepInfo
	for _, a := range e.Actions {
		for _, s := range a.Steps {
			switch s.Status {
			case StepFail:
				return StepFail
			case StepError:
				status = StepError
			case StepPass:
				if status == StepInfo {
					status = StepPass
				}
			}
		}
	}
	return status
}

// ExecutionAck is the service's acknowledgement of a saved execution.
type ExecutionAck struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Suite   string    `json:"suite"`
	BuildID string    `json:"build"`
	Status  StepState `json:"status,omitempty"`
}

// ScreenshotPlatform describes the device or browser a screenshot was taken on.
type ScreenshotPlatform struct {
	PlatformName    string `json:"platformName,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty"`
	BrowserName     string `json:"browserName,omitempty"`
	BrowserVersion  string `json:"browserVersion,omitempty"`
	DeviceName      string `json:"deviceName,omitempty"`
}

// StoreScreenshotRequest is the record sent to persist a screenshot file.
type StoreScreenshotRequest struct {
	BuildID   string    `json:"buildId"`
	FilePath  string    `json:"filePath"`
	View      string    `json:"view"`
	Timestamp time.Time `json:"timestamp"`
}

// Screenshot is a persisted screenshot. ID can be referenced from a Step.
type Screenshot struct {
	ID        string              `json:"id"`
	BuildID   string              `json:"buildId"`
	FilePath  string              `json:"filePath,omitempty"`
	View      string              `json:"view"`
	Timestamp time.Time           `json:"timestamp"`
	Platform  *ScreenshotPlatform `json:"platform,omitempty"`
}

// Team groups components that report builds.
type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Components []string `json:"components,omitempty"`
}

// Environment is a named deployment target builds run against.
type Environment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
