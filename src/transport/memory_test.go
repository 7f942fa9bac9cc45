package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"angles-reporter/src/contracts"
)

func TestMemoryTransport_BuildLifecycle(t *testing.T) {
	m := NewMemoryTransport()
	ctx := context.Background()

	build, err := m.CreateBuild(ctx, &contracts.CreateBuildRequest{Name: "b1", Team: "teamA", Environment: "prod", Component: "svcX"})
	if err != nil {
		t.Fatalf("CreateBuild() error = %v", err)
	}
	if build.ID != "build-1" {
		t.Errorf("ID = %q, want %q", build.ID, "build-1")
	}

	updated, err := m.AddArtifacts(ctx, build.ID, []contracts.Artifact{{GroupID: "g", ArtifactID: "a", Version: "1.0"}})
	if err != nil {
		t.Fatalf("AddArtifacts() error = %v", err)
	}
	if len(updated.Artifacts) != 1 {
		t.Errorf("artifacts = %d, want 1", len(updated.Artifacts))
	}

	_, err = m.AddArtifacts(ctx, "missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("AddArtifacts(missing) error = %v, want ErrNotFound", err)
	}

	builds := m.Builds()
	if len(builds) != 1 || builds[0].Team != "teamA" {
		t.Errorf("Builds() = %+v, want one build for teamA", builds)
	}
}

func TestMemoryTransport_SaveExecution(t *testing.T) {
	m := NewMemoryTransport()
	ctx := context.Background()

	exec := &contracts.Execution{
		Title:   "t1",
		Suite:   "s1",
		BuildID: "build-1",
		Actions: []contracts.Action{{Name: "a", Steps: []contracts.Step{{Name: "x", Status: contracts.StepFail}}}},
	}

	ack, err := m.SaveExecution(ctx, exec)
	if err != nil {
		t.Fatalf("SaveExecution() error = %v", err)
	}
	if ack.Status != contracts.StepFail {
		t.Errorf("ack.Status = %v, want FAIL", ack.Status)
	}

	exec.Actions[0].Steps[0].Name = "mutated"
	if got := m.Executions()[0].Actions[0].Steps[0].Name; got != "x" {
		t.Errorf("stored step name = %q, want %q (stored copy must be isolated)", got, "x")
	}

	_, err = m.SaveExecution(ctx, &contracts.Execution{Title: "orphan"})
	var te *TransportError
	if !errors.As(err, &te) || te.StatusCode != 422 {
		t.Errorf("SaveExecution(no build) error = %v, want 422 TransportError", err)
	}
}

func TestMemoryTransport_InjectedFailures(t *testing.T) {
	m := NewMemoryTransport()
	boom := &TransportError{Op: "save screenshot", Err: ErrUnavailable}
	m.SaveScreenshotErr = boom

	_, err := m.SaveScreenshot(context.Background(), &contracts.StoreScreenshotRequest{BuildID: "b", View: "home", Timestamp: time.Now()}, nil)
	if err != boom {
		t.Errorf("SaveScreenshot() error = %v, want injected error", err)
	}
	if len(m.Screenshots()) != 0 {
		t.Error("failed screenshot should not be stored")
	}

	calls := m.Calls()
	if len(calls) != 1 || calls[0] != "SaveScreenshot" {
		t.Errorf("Calls() = %v, want [SaveScreenshot]", calls)
	}
}
