// Package reporter holds the reporting session: the state machine that accumulates a build,
// a test execution made of ordered actions and steps, and hands finished records to a transport.
//
// A Session is not safe for concurrent use. Test code is expected to call it
// sequentially, one assertion or action at a time.
package reporter

import (
	"context"
	"time"

	"angles-reporter/src/contracts"
	"angles-reporter/src/logger"
	"angles-reporter/src/transport"
)

// DefaultActionName is used for the action opened implicitly when a step is
// recorded without one.
const DefaultActionName = "test-details"

// State is the position of a session in its lifecycle.
type State int

const (
	StateNoBuild State = iota
	StateHasBuild
	StateHasExecution
	StateHasAction
)

func (s State) String() string {
	switch s {
	case StateNoBuild:
		return "no-build"
	case StateHasBuild:
		return "has-build"
	case StateHasExecution:
		return "has-execution"
	case StateHasAction:
		return "has-action"
	}
	return "unknown"
}

// Session tracks the current build, execution and action.
type Session struct {
	transport transport.Transport
	log       logger.Logger
	now       func() time.Time

	build     *contracts.Build
	execution *contracts.Execution
	// action indexes execution.Actions; -1 when no action is open.
	action int
	// saved is set once the current execution has been sent and no step was added since.
	saved bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to a silent logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source used to stamp actions, steps and screenshots.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession creates a session that persists through t.
func NewSession(t transport.Transport, opts ...Option) *Session {
	s := &Session{
		transport: t,
		log:       logger.NewSilentLogger(),
		now:       time.Now,
		action:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State derives the lifecycle position from the current cursor.
func (s *Session) State() State {
	switch {
	case s.execution != nil && s.action >= 0:
		return StateHasAction
	case s.execution != nil && !s.saved:
		return StateHasExecution
	case s.build != nil:
		return StateHasBuild
	default:
		return StateNoBuild
	}
}

// CurrentBuild returns a copy of the current build, or nil.
func (s *Session) CurrentBuild() *contracts.Build {
	if s.build == nil {
		return nil
	}
	b := *s.build
	b.Artifacts = append([]contracts.Artifact(nil), s.build.Artifacts...)
	return &b
}

// CurrentExecution returns a deep copy of the execution being recorded, or nil.
func (s *Session) CurrentExecution() *contracts.Execution {
	return s.execution.Clone()
}

// StartBuild registers a new build and makes it current, replacing any previous
// build and execution. On failure the session is left as it was.
func (s *Session) StartBuild(ctx context.Context, name, team, environment, component string) (*contracts.Build, error) {
	req := &contracts.CreateBuildRequest{
		Name:        name,
		Environment: environment,
		Team:        team,
		Component:   component,
	}

	build, err := s.transport.CreateBuild(ctx, req)
	if err != nil {
		return nil, err
	}

	s.build = build
	s.execution = nil
	s.action = -1
	s.saved = false
	s.log.Info("Started build %s (%s) for team %s on %s", build.ID, name, team, environment)

	return s.CurrentBuild(), nil
}

// AddArtifacts appends artifacts to the current build. The transport's
// updated record becomes the current build.
func (s *Session) AddArtifacts(ctx context.Context, artifacts []contracts.Artifact) (*contracts.Build, error) {
	if s.build == nil {
		return nil, precondition("add artifacts", ErrNoCurrentBuild)
	}

	build, err := s.transport.AddArtifacts(ctx, s.build.ID, artifacts)
	if err != nil {
		return nil, err
	}

	s.build = build
	s.log.Debug("Added %d artifacts to build %s", len(artifacts), build.ID)

	return s.CurrentBuild(), nil
}

// StartTest opens a new execution bound to the current build.
// Without a build the execution carries an empty build ID and the service
// rejects it on SaveTest.
func (s *Session) StartTest(title, suite string) {
	buildID := ""
	if s.build != nil {
		buildID = s.build.ID
	} else {
		s.log.Warn("Starting test %q without a build; the service will reject it on save", title)
	}

	s.execution = &contracts.Execution{
		Title:   title,
		Suite:   suite,
		BuildID: buildID,
		Actions: []contracts.Action{},
	}
	s.action = -1
	s.saved = false
}

// AddAction appends a new action to the current execution and makes it current.
func (s *Session) AddAction(name string) error {
	if s.execution == nil {
		return precondition("add action", ErrNoCurrentExecution)
	}

	s.execution.Actions = append(s.execution.Actions, contracts.Action{
		Name:  name,
		Start: s.now(),
		Steps: []contracts.Step{},
	})
	s.action = len(s.execution.Actions) - 1
	s.saved = false

	return nil
}

// SaveTest closes the open action and sends the accumulated execution.
// A step recorded afterwards opens a fresh implicit action.
func (s *Session) SaveTest(ctx context.Context) (*contracts.ExecutionAck, error) {
	s.action = -1
	if s.execution == nil {
		return nil, precondition("save test", ErrNoCurrentExecution)
	}

	ack, err := s.transport.SaveExecution(ctx, s.execution.Clone())
	if err != nil {
		return nil, err
	}

	s.saved = true
	s.log.Info("Saved test %q with %d actions (%s)", s.execution.Title, len(s.execution.Actions), s.execution.Status())

	return ack, nil
}
