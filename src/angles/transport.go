package angles

import (
	"context"

	"angles-reporter/src/contracts"
	"angles-reporter/src/transport"
)

// Transport implements transport.Transport and transport.Directory over the Angles API.
type Transport struct {
	client *Client
}

var (
	_ transport.Transport = (*Transport)(nil)
	_ transport.Directory = (*Transport)(nil)
)

// NewTransport wraps an API client.
func NewTransport(client *Client) *Transport {
	return &Transport{client: client}
}

// CreateBuild registers a build and maps the response.
func (t *Transport) CreateBuild(ctx context.Context, req *contracts.CreateBuildRequest) (*contracts.Build, error) {
	b, err := t.client.CreateBuild(ctx, CreateBuild{
		Name:        req.Name,
		Environment: req.Environment,
		Team:        req.Team,
		Component:   req.Component,
	})
	if err != nil {
		return nil, err
	}
	return toBuild(b), nil
}

// AddArtifacts appends artifacts to a build.
func (t *Transport) AddArtifacts(ctx context.Context, buildID string, artifacts []contracts.Artifact) (*contracts.Build, error) {
	wire := make([]Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		wire = append(wire, Artifact{GroupID: a.GroupID, ArtifactID: a.ArtifactID, Version: a.Version})
	}

	b, err := t.client.AddArtifacts(ctx, buildID, wire)
	if err != nil {
		return nil, err
	}
	return toBuild(b), nil
}

// SaveExecution sends the execution tree.
func (t *Transport) SaveExecution(ctx context.Context, execution *contracts.Execution) (*contracts.ExecutionAck, error) {
	body := CreateExecution{
		Title:   execution.Title,
		Suite:   execution.Suite,
		Build:   execution.BuildID,
		Actions: make([]Action, 0, len(execution.Actions)),
	}
	for _, a := range execution.Actions {
		action := Action{Name: a.Name, Start: a.Start, Steps: make([]Step, 0, len(a.Steps))}
		for _, s := range a.Steps {
			action.Steps = append(action.Steps, Step{
				Name:       s.Name,
				Expected:   s.Expected,
				Actual:     s.Actual,
				Info:       s.Info,
				Status:     string(s.Status),
				Timestamp:  s.Timestamp,
				Screenshot: s.ScreenshotID,
			})
		}
		body.Actions = append(body.Actions, action)
	}

	e, err := t.client.SaveExecution(ctx, body)
	if err != nil {
		return nil, err
	}

	ack := &contracts.ExecutionAck{
		ID:      e.ID,
		Title:   e.Title,
		Suite:   e.Suite,
		BuildID: e.Build,
	}
	if status, err := contracts.ParseStepState(e.Status); err == nil {
		ack.Status = status
	}
	return ack, nil
}

// SaveScreenshot uploads a screenshot file.
func (t *Transport) SaveScreenshot(ctx context.Context, req *contracts.StoreScreenshotRequest, platform *contracts.ScreenshotPlatform) (*contracts.Screenshot, error) {
	upload := StoreScreenshot{
		BuildID:   req.BuildID,
		FilePath:  req.FilePath,
		View:      req.View,
		Timestamp: req.Timestamp,
	}
	if platform != nil {
		upload.Platform = &Platform{
			PlatformName:    platform.PlatformName,
			PlatformVersion: platform.PlatformVersion,
			BrowserName:     platform.BrowserName,
			BrowserVersion:  platform.BrowserVersion,
			DeviceName:      platform.DeviceName,
		}
	}

	s, err := t.client.SaveScreenshot(ctx, upload)
	if err != nil {
		return nil, err
	}

	shot := &contracts.Screenshot{
		ID:        s.ID,
		BuildID:   s.Build,
		FilePath:  req.FilePath,
		View:      s.View,
		Timestamp: s.Timestamp,
		Platform:  platform,
	}
	if p := s.Platform; p != nil {
		shot.Platform = &contracts.ScreenshotPlatform{
			PlatformName:    p.PlatformName,
			PlatformVersion: p.PlatformVersion,
			BrowserName:     p.BrowserName,
			BrowserVersion:  p.BrowserVersion,
			DeviceName:      p.DeviceName,
		}
	}
	return shot, nil
}

// ListTeams returns every team with its component names.
func (t *Transport) ListTeams(ctx context.Context) ([]contracts.Team, error) {
	teams, err := t.client.ListTeams(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.Team, 0, len(teams))
	for _, team := range teams {
		ct := contracts.Team{ID: team.ID, Name: team.Name}
		for _, c := range team.Components {
			ct.Components = append(ct.Components, c.Name)
		}
		out = append(out, ct)
	}
	return out, nil
}

// ListEnvironments returns every environment.
func (t *Transport) ListEnvironments(ctx context.Context) ([]contracts.Environment, error) {
	envs, err := t.client.ListEnvironments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]contracts.Environment, 0, len(envs))
	for _, e := range envs {
		out = append(out, contracts.Environment{ID: e.ID, Name: e.Name})
	}
	return out, nil
}

// GetBuild fetches one build.
func (t *Transport) GetBuild(ctx context.Context, buildID string) (*contracts.Build, error) {
	b, err := t.client.GetBuild(ctx, buildID)
	if err != nil {
		return nil, err
	}
	return toBuild(b), nil
}

func toBuild(b *Build) *contracts.Build {
	build := &contracts.Build{
		ID:          b.ID,
		Name:        b.Name,
		Team:        b.Team.Name,
		Environment: b.Environment.Name,
		Component:   b.Component.Name,
		Start:       b.Start,
	}
	for _, a := range b.Artifacts {
		build.Artifacts = append(build.Artifacts, contracts.Artifact{
			GroupID:    a.GroupID,
			ArtifactID: a.ArtifactID,
			Version:    a.Version,
		})
	}
	return build
}
