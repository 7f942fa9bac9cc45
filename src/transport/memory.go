package transport

import (
	"context"
	"fmt"
	"sync"

	"angles-reporter/src/contracts"
)

// MemoryTransport is a thread-safe in-memory implementation of Transport.
// Used for dry runs and tests; it keeps every record it receives.
type MemoryTransport struct {
	mu sync.Mutex

	// NewID generates service-side identifiers. kind is "build", "execution" or "screenshot".
	NewID func(kind string) string

	// Injected failures, returned instead of storing the record.
	CreateBuildErr    error
	AddArtifactsErr   error
	SaveExecutionErr  error
	SaveScreenshotErr error

	counters    map[string]int
	builds      map[string]*contracts.Build
	buildOrder  []string
	executions  []*contracts.Execution
	screenshots []*contracts.Screenshot
	calls       []string
}

// NewMemoryTransport creates an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	m := &MemoryTransport{
		counters: make(map[string]int),
		builds:   make(map[string]*contracts.Build),
	}
	m.NewID = m.sequentialID
	return m
}

func (m *MemoryTransport) sequentialID(kind string) string {
	m.counters[kind]++
	return fmt.Sprintf("%s-%d", kind, m.counters[kind])
}

// CreateBuild stores a new build.
func (m *MemoryTransport) CreateBuild(ctx context.Context, req *contracts.CreateBuildRequest) (*contracts.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "CreateBuild")
	if m.CreateBuildErr != nil {
		return nil, m.CreateBuildErr
	}

	build := &contracts.Build{
		ID:          m.NewID("build"),
		Name:        req.Name,
		Team:        req.Team,
		Environment: req.Environment,
		Component:   req.Component,
	}
	m.builds[build.ID] = build
	m.buildOrder = append(m.buildOrder, build.ID)

	out := *build
	return &out, nil
}

// AddArtifacts appends artifacts to a stored build.
func (m *MemoryTransport) AddArtifacts(ctx context.Context, buildID string, artifacts []contracts.Artifact) (*contracts.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "AddArtifacts")
	if m.AddArtifactsErr != nil {
		return nil, m.AddArtifactsErr
	}

	build, ok := m.builds[buildID]
	if !ok {
		return nil, NewStatusError("add artifacts", 404, fmt.Sprintf("build %s not found", buildID))
	}
	build.Artifacts = append(build.Artifacts, artifacts...)

	out := *build
	out.Artifacts = append([]contracts.Artifact(nil), build.Artifacts...)
	return &out, nil
}

// SaveExecution stores a copy of the execution.
func (m *MemoryTransport) SaveExecution(ctx context.Context, execution *contracts.Execution) (*contracts.ExecutionAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "SaveExecution")
	if m.SaveExecutionErr != nil {
		return nil, m.SaveExecutionErr
	}
	if execution.BuildID == "" {
		return nil, NewStatusError("save execution", 422, "build is required")
	}

	m.executions = append(m.executions, execution.Clone())
	return &contracts.ExecutionAck{
		ID:      m.NewID("execution"),
		Title:   execution.Title,
		Suite:   execution.Suite,
		BuildID: execution.BuildID,
		Status:  execution.Status(),
	}, nil
}

// SaveScreenshot stores screenshot metadata. The file itself is not read.
func (m *MemoryTransport) SaveScreenshot(ctx context.Context, req *contracts.StoreScreenshotRequest, platform *contracts.ScreenshotPlatform) (*contracts.Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "SaveScreenshot")
	if m.SaveScreenshotErr != nil {
		return nil, m.SaveScreenshotErr
	}

	shot := &contracts.Screenshot{
		ID:        m.NewID("screenshot"),
		BuildID:   req.BuildID,
		FilePath:  req.FilePath,
		View:      req.View,
		Timestamp: req.Timestamp,
		Platform:  platform,
	}
	m.screenshots = append(m.screenshots, shot)

	out := *shot
	return &out, nil
}

// Builds returns stored builds in creation order.
func (m *MemoryTransport) Builds() []contracts.Build {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]contracts.Build, 0, len(m.buildOrder))
	for _, id := range m.buildOrder {
		out = append(out, *m.builds[id])
	}
	return out
}

// Executions returns copies of every saved execution in save order.
func (m *MemoryTransport) Executions() []*contracts.Execution {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*contracts.Execution, 0, len(m.executions))
	for _, e := range m.executions {
		out = append(out, e.Clone())
	}
	return out
}

// Screenshots returns stored screenshots in save order.
func (m *MemoryTransport) Screenshots() []contracts.Screenshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]contracts.Screenshot, 0, len(m.screenshots))
	for _, s := range m.screenshots {
		out = append(out, *s)
	}
	return out
}

// Calls returns the names of the Transport methods invoked, in order.
func (m *MemoryTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
