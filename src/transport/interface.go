// Package transport defines the collaborator the reporting session delegates all network I/O to.
package transport

import (
	"context"

	"angles-reporter/src/contracts"
)

// Transport persists reporting records on a remote service.
// Every method may fail with a *TransportError.
type Transport interface {
	// CreateBuild registers a build and returns it with its service-assigned ID
	CreateBuild(ctx context.Context, req *contracts.CreateBuildRequest) (*contracts.Build, error)

	// AddArtifacts appends artifacts to a build and returns the canonical updated build
	AddArtifacts(ctx context.Context, buildID string, artifacts []contracts.Artifact) (*contracts.Build, error)

	// SaveExecution sends a complete execution tree
	SaveExecution(ctx context.Context, execution *contracts.Execution) (*contracts.ExecutionAck, error)

	// SaveScreenshot uploads a screenshot file. platform may be nil.
	SaveScreenshot(ctx context.Context, req *contracts.StoreScreenshotRequest, platform *contracts.ScreenshotPlatform) (*contracts.Screenshot, error)
}

// Directory lists the reference data a reporting service knows about.
type Directory interface {
	ListTeams(ctx context.Context) ([]contracts.Team, error)
	ListEnvironments(ctx context.Context) ([]contracts.Environment, error)
	// GetBuild fetches a build by its service ID.
	GetBuild(ctx context.Context, buildID string) (*contracts.Build, error)
}
