// Package mcp exposes a reporting session as Model Context Protocol tools so an
// agent driving a browser or device can report what it did step by step.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"angles-reporter/src/contracts"
	"angles-reporter/src/logger"
	"angles-reporter/src/render"
	"angles-reporter/src/reporter"
)

// Server is the MCP server for angles-reporter.
type Server struct {
	mcpServer *server.MCPServer
	log       logger.Logger
	store     ExecutionStore

	// mu serializes tool calls: a Session is not safe for concurrent use.
	mu      sync.Mutex
	session *reporter.Session
}

// NewServer creates an MCP server driving session.
func NewServer(session *reporter.Session, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	s := server.NewMCPServer(
		"angles-reporter",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		log:       log,
		store:     NewInMemoryStore(),
		session:   session,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_build",
		mcp.WithDescription("Register a new build on the reporting service and make it current. Replaces any previous build and test."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Build name")),
		mcp.WithString("team", mcp.Required(), mcp.Description("Team that owns the component")),
		mcp.WithString("environment", mcp.Required(), mcp.Description("Environment the build was tested on")),
		mcp.WithString("component", mcp.Required(), mcp.Description("Component under test")),
	), s.handleStartBuild)

	s.mcpServer.AddTool(mcp.NewTool("add_artifacts",
		mcp.WithDescription("Attach artifacts to the current build."),
		mcp.WithString("artifacts", mcp.Required(), mcp.Description("Comma separated groupId:artifactId:version list")),
	), s.handleAddArtifacts)

	s.mcpServer.AddTool(mcp.NewTool("start_test",
		mcp.WithDescription("Start recording a new test execution on the current build."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Test title")),
		mcp.WithString("suite", mcp.Description("Suite the test belongs to")),
	), s.handleStartTest)

	s.mcpServer.AddTool(mcp.NewTool("add_action",
		mcp.WithDescription("Open a new named action in the current test. Later steps are grouped under it."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Action name")),
	), s.handleAddAction)

	s.mcpServer.AddTool(mcp.NewTool("add_step",
		mcp.WithDescription("Record one step on the current action. An action named test-details is opened if none is open."),
		mcp.WithString("status", mcp.Required(), mcp.Description("INFO, ERROR, PASS or FAIL")),
		mcp.WithString("name", mcp.Description("Step name (defaults to the status for INFO and ERROR)")),
		mcp.WithString("expected", mcp.Description("Expected value")),
		mcp.WithString("actual", mcp.Description("Actual value")),
		mcp.WithString("info", mcp.Description("Free text detail")),
		mcp.WithString("screenshot_id", mcp.Description("ID returned by save_screenshot")),
	), s.handleAddStep)

	s.mcpServer.AddTool(mcp.NewTool("save_screenshot",
		mcp.WithDescription("Upload a screenshot file for the current build. A failed upload is recorded as an ERROR step instead of failing the test."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path of the image file")),
		mcp.WithString("view", mcp.Required(), mcp.Description("Name of the view captured")),
		mcp.WithString("platform_name", mcp.Description("Platform name, e.g. Android")),
		mcp.WithString("platform_version", mcp.Description("Platform version")),
		mcp.WithString("browser_name", mcp.Description("Browser name")),
		mcp.WithString("browser_version", mcp.Description("Browser version")),
		mcp.WithString("device_name", mcp.Description("Device name")),
	), s.handleSaveScreenshot)

	s.mcpServer.AddTool(mcp.NewTool("save_test",
		mcp.WithDescription("Send the current test execution to the reporting service."),
	), s.handleSaveTest)

	s.mcpServer.AddTool(mcp.NewTool("session_state",
		mcp.WithDescription("Show the session state, current build and a rendering of the current test."),
		mcp.WithNumber("width", mcp.Description("Render width in columns (default: 100)")),
	), s.handleSessionState)

	s.mcpServer.AddTool(mcp.NewTool("get_execution",
		mcp.WithDescription("Read back an execution saved through this server, by the ID save_test returned."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Execution ID")),
	), s.handleGetExecution)

	s.mcpServer.AddTool(mcp.NewTool("list_executions",
		mcp.WithDescription("List executions saved through this server for a build, in save order. Defaults to the current build."),
		mcp.WithString("build_id", mcp.Description("Build ID (default: current build)")),
	), s.handleListExecutions)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleStartBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, missing := requiredStrings(request, "name", "team", "environment", "component")
	if missing != "" {
		return mcp.NewToolResultError(missing + " parameter is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	build, err := s.session.StartBuild(ctx, args["name"], args["team"], args["environment"], args["component"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start build failed: %v", err)), nil
	}
	return jsonResult(build)
}

func (s *Server) handleAddArtifacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("artifacts", "")
	if strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("artifacts parameter is required"), nil
	}

	var artifacts []contracts.Artifact
	for _, part := range strings.Split(raw, ",") {
		a, err := contracts.ParseArtifact(part)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		artifacts = append(artifacts, a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	build, err := s.session.AddArtifacts(ctx, artifacts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add artifacts failed: %v", err)), nil
	}
	return jsonResult(build)
}

func (s *Server) handleStartTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := request.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("title parameter is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.StartTest(title, request.GetString("suite", ""))
	return s.stateResult()
}

func (s *Server) handleAddAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.AddAction(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult()
}

func (s *Server) handleAddStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := contracts.ParseStepState(strings.ToUpper(request.GetString("status", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := request.GetString("name", "")
	if name == "" {
		name = string(status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.session.AddStep(
		name,
		request.GetString("expected", ""),
		request.GetString("actual", ""),
		request.GetString("info", ""),
		status,
		request.GetString("screenshot_id", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult()
}

func (s *Server) handleSaveScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, missing := requiredStrings(request, "file_path", "view")
	if missing != "" {
		return mcp.NewToolResultError(missing + " parameter is required"), nil
	}

	platform := &contracts.ScreenshotPlatform{
		PlatformName:    request.GetString("platform_name", ""),
		PlatformVersion: request.GetString("platform_version", ""),
		BrowserName:     request.GetString("browser_name", ""),
		BrowserVersion:  request.GetString("browser_version", ""),
		DeviceName:      request.GetString("device_name", ""),
	}
	if *platform == (contracts.ScreenshotPlatform{}) {
		platform = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, err := s.session.SaveScreenshotWithPlatform(ctx, args["file_path"], args["view"], platform)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := ScreenshotResponse{ID: outcome.ID(), Degraded: outcome.Degraded()}
	if outcome.Degraded() {
		resp.Error = outcome.Err.Error()
		s.log.Warn("[MCP] Screenshot %s recorded as ERROR step: %v", args["file_path"], outcome.Err)
	}
	return jsonResult(resp)
}

func (s *Server) handleSaveTest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ack, err := s.session.SaveTest(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save test failed: %v", err)), nil
	}

	s.store.Store(SavedExecution{Ack: *ack, Execution: s.session.CurrentExecution()})
	return jsonResult(ack)
}

func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	width := request.GetInt("width", 100)

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StateResponse{
		State: s.session.State().String(),
		Build: s.session.CurrentBuild(),
	}
	if exec := s.session.CurrentExecution(); exec != nil {
		resp.Execution = render.Execution(exec, width)
		resp.Status = exec.Status()
	}
	return jsonResult(resp)
}

func (s *Server) handleGetExecution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	saved, found := s.store.Get(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("execution not found: id=%s", id)), nil
	}
	return jsonResult(saved)
}

func (s *Server) handleListExecutions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	buildID := request.GetString("build_id", "")
	if buildID == "" {
		s.mu.Lock()
		build := s.session.CurrentBuild()
		s.mu.Unlock()
		if build == nil {
			return mcp.NewToolResultError("build_id parameter is required when no build is current"), nil
		}
		buildID = build.ID
	}

	saved := s.store.ByBuild(buildID)
	resp := ExecutionListResponse{BuildID: buildID, Executions: make([]contracts.ExecutionAck, 0, len(saved))}
	for _, e := range saved {
		resp.Executions = append(resp.Executions, e.Ack)
	}
	return jsonResult(resp)
}

// ExecutionListResponse is returned by list_executions.
type ExecutionListResponse struct {
	BuildID    string                   `json:"build_id"`
	Executions []contracts.ExecutionAck `json:"executions"`
}

// StateResponse is returned by session_state and by the recording tools.
type StateResponse struct {
	State     string              `json:"state"`
	Build     *contracts.Build    `json:"build,omitempty"`
	Status    contracts.StepState `json:"status,omitempty"`
	Execution string              `json:"execution,omitempty"`
	Steps     int                 `json:"steps,omitempty"`
}

// ScreenshotResponse is returned by save_screenshot.
type ScreenshotResponse struct {
	ID       string `json:"id,omitempty"`
	Degraded bool   `json:"degraded"`
	Error    string `json:"error,omitempty"`
}

// stateResult reports a compact state after a recording call. Caller holds mu.
func (s *Server) stateResult() (*mcp.CallToolResult, error) {
	resp := StateResponse{State: s.session.State().String()}
	if exec := s.session.CurrentExecution(); exec != nil {
		resp.Status = exec.Status()
		resp.Steps = exec.StepCount()
	}
	return jsonResult(resp)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// requiredStrings returns the named arguments, or the first missing name.
func requiredStrings(request mcp.CallToolRequest, names ...string) (map[string]string, string) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v := request.GetString(name, "")
		if v == "" {
			return nil, name
		}
		out[name] = v
	}
	return out, ""
}
