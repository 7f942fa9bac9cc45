package reporter

import (
	"context"
	"errors"
	"testing"
	"time"

	"angles-reporter/src/contracts"
	"angles-reporter/src/transport"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestSession(t *testing.T) (*Session, *transport.MemoryTransport) {
	t.Helper()
	mem := transport.NewMemoryTransport()
	mem.NewID = func(kind string) string {
		switch kind {
		case "build":
			return "B1"
		case "screenshot":
			return "S1"
		}
		return "E1"
	}
	return NewSession(mem, WithClock(fixedClock())), mem
}

func TestSession_ScenarioSinglePassStep(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestSession(t)

	build, err := s.StartBuild(ctx, "b1", "teamA", "prod", "svcX")
	if err != nil {
		t.Fatalf("StartBuild() error = %v", err)
	}
	if build.ID != "B1" {
		t.Errorf("build.ID = %q, want %q", build.ID, "B1")
	}

	s.StartTest("t1", "suiteA")
	exec := s.CurrentExecution()
	if exec.BuildID != "B1" {
		t.Errorf("execution BuildID = %q, want %q", exec.BuildID, "B1")
	}
	if len(exec.Actions) != 0 {
		t.Errorf("new execution has %d actions, want 0", len(exec.Actions))
	}

	if err := s.Pass("check1", "200", "200", "ok"); err != nil {
		t.Fatalf("Pass() error = %v", err)
	}

	if _, err := s.SaveTest(ctx); err != nil {
		t.Fatalf("SaveTest() error = %v", err)
	}

	saved := mem.Executions()
	if len(saved) != 1 {
		t.Fatalf("transport received %d executions, want 1", len(saved))
	}
	got := saved[0]
	if len(got.Actions) != 1 {
		t.Fatalf("saved actions = %d, want 1", len(got.Actions))
	}
	if got.Actions[0].Name != DefaultActionName {
		t.Errorf("action name = %q, want %q", got.Actions[0].Name, DefaultActionName)
	}
	if len(got.Actions[0].Steps) != 1 {
		t.Fatalf("saved steps = %d, want 1", len(got.Actions[0].Steps))
	}
	step := got.Actions[0].Steps[0]
	if step.Status != contracts.StepPass || step.Name != "check1" || step.Expected != "200" || step.Actual != "200" || step.Info != "ok" {
		t.Errorf("saved step = %+v, want PASS check1 200/200 ok", step)
	}

	if s.State() != StateHasBuild {
		t.Errorf("State() after SaveTest = %v, want %v", s.State(), StateHasBuild)
	}
	if s.action != -1 {
		t.Errorf("action cursor = %d after SaveTest, want cleared", s.action)
	}
}

func TestSession_ScenarioExplicitActions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	if _, err := s.StartBuild(ctx, "b1", "teamA", "prod", "svcX"); err != nil {
		t.Fatalf("StartBuild() error = %v", err)
	}
	s.StartTest("t1", "suiteA")

	mustNoErr(t, s.AddAction("login"))
	mustNoErr(t, s.Fail("submit", "success", "error", "bad creds"))
	mustNoErr(t, s.AddAction("logout"))
	mustNoErr(t, s.Info("done"))

	exec := s.CurrentExecution()
	if len(exec.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(exec.Actions))
	}

	want := []struct {
		action string
		step   string
		status contracts.StepState
	}{
		{"login", "submit", contracts.StepFail},
		{"logout", "INFO", contracts.StepInfo},
	}
	for i, w := range want {
		a := exec.Actions[i]
		if a.Name != w.action {
			t.Errorf("action %d name = %q, want %q", i, a.Name, w.action)
		}
		if len(a.Steps) != 1 {
			t.Fatalf("action %q steps = %d, want 1", a.Name, len(a.Steps))
		}
		if a.Steps[0].Name != w.step || a.Steps[0].Status != w.status {
			t.Errorf("action %q step = %s/%s, want %s/%s", a.Name, a.Steps[0].Name, a.Steps[0].Status, w.step, w.status)
		}
	}
}

func TestSession_LazyActionIsReused(t *testing.T) {
	s, _ := newTestSession(t)
	if _, err := s.StartBuild(context.Background(), "b", "t", "e", "c"); err != nil {
		t.Fatal(err)
	}
	s.StartTest("t1", "suite")

	mustNoErr(t, s.Info("first"))
	mustNoErr(t, s.Error("second"))
	mustNoErr(t, s.AddStep("third", "a", "b", "", contracts.StepFail, "S9"))

	exec := s.CurrentExecution()
	if len(exec.Actions) != 1 {
		t.Fatalf("actions = %d, want exactly one implicit action", len(exec.Actions))
	}
	steps := exec.Actions[0].Steps
	if len(steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(steps))
	}
	if steps[1].Name != "ERROR" || steps[1].Status != contracts.StepError {
		t.Errorf("step 1 = %s/%s, want ERROR/ERROR", steps[1].Name, steps[1].Status)
	}
	if steps[2].ScreenshotID != "S9" {
		t.Errorf("step 2 screenshot = %q, want %q", steps[2].ScreenshotID, "S9")
	}
}

func TestSession_StepOrderMatchesCallOrder(t *testing.T) {
	s, _ := newTestSession(t)
	s.StartTest("ordering", "suite")

	names := []string{"a", "b", "c", "d", "e"}
	for _, action := range []string{"first", "second"} {
		mustNoErr(t, s.AddAction(action))
		for _, n := range names {
			mustNoErr(t, s.Pass(action+"-"+n, "", "", ""))
		}
	}

	exec := s.CurrentExecution()
	if exec.Actions[0].Name != "first" || exec.Actions[1].Name != "second" {
		t.Fatalf("action order = %s,%s, want first,second", exec.Actions[0].Name, exec.Actions[1].Name)
	}
	for _, a := range exec.Actions {
		var prev time.Time
		for i, step := range a.Steps {
			if step.Name != a.Name+"-"+names[i] {
				t.Errorf("action %s step %d = %q, want %q", a.Name, i, step.Name, a.Name+"-"+names[i])
			}
			if !step.Timestamp.After(prev) {
				t.Errorf("step %q timestamp not increasing", step.Name)
			}
			prev = step.Timestamp
		}
	}
}

func TestSession_StepAfterSaveOpensFreshAction(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestSession(t)
	if _, err := s.StartBuild(ctx, "b", "t", "e", "c"); err != nil {
		t.Fatal(err)
	}
	s.StartTest("t1", "suite")
	mustNoErr(t, s.AddAction("login"))
	mustNoErr(t, s.Pass("p1", "", "", ""))

	if _, err := s.SaveTest(ctx); err != nil {
		t.Fatalf("SaveTest() error = %v", err)
	}

	mustNoErr(t, s.Info("late"))

	exec := s.CurrentExecution()
	if len(exec.Actions) != 2 {
		t.Fatalf("actions = %d, want 2 (former + fresh implicit)", len(exec.Actions))
	}
	if len(exec.Actions[0].Steps) != 1 {
		t.Errorf("former action gained steps: %d, want 1", len(exec.Actions[0].Steps))
	}
	if exec.Actions[1].Name != DefaultActionName {
		t.Errorf("fresh action name = %q, want %q", exec.Actions[1].Name, DefaultActionName)
	}
	if s.State() != StateHasAction {
		t.Errorf("State() = %v, want %v", s.State(), StateHasAction)
	}

	first := mem.Executions()[0]
	if len(first.Actions) != 1 {
		t.Errorf("already-sent execution was mutated: %d actions, want 1", len(first.Actions))
	}
}

func TestSession_AddArtifacts(t *testing.T) {
	ctx := context.Background()

	t.Run("without build never reaches transport", func(t *testing.T) {
		s, mem := newTestSession(t)

		_, err := s.AddArtifacts(ctx, []contracts.Artifact{{GroupID: "g", ArtifactID: "a", Version: "1"}})
		if !errors.Is(err, ErrNoCurrentBuild) {
			t.Errorf("AddArtifacts() error = %v, want ErrNoCurrentBuild", err)
		}
		var pe *PreconditionError
		if !errors.As(err, &pe) {
			t.Errorf("AddArtifacts() error type = %T, want *PreconditionError", err)
		}
		if len(mem.Calls()) != 0 {
			t.Errorf("transport calls = %v, want none", mem.Calls())
		}
	})

	t.Run("updates current build", func(t *testing.T) {
		s, _ := newTestSession(t)
		if _, err := s.StartBuild(ctx, "b", "t", "e", "c"); err != nil {
			t.Fatal(err)
		}

		build, err := s.AddArtifacts(ctx, []contracts.Artifact{{GroupID: "com.example", ArtifactID: "app", Version: "1.2.3"}})
		if err != nil {
			t.Fatalf("AddArtifacts() error = %v", err)
		}
		if len(build.Artifacts) != 1 || build.Artifacts[0].Version != "1.2.3" {
			t.Errorf("returned artifacts = %+v", build.Artifacts)
		}
		if got := s.CurrentBuild(); len(got.Artifacts) != 1 {
			t.Errorf("current build artifacts = %d, want 1", len(got.Artifacts))
		}
	})

	t.Run("transport error propagates", func(t *testing.T) {
		s, mem := newTestSession(t)
		if _, err := s.StartBuild(ctx, "b", "t", "e", "c"); err != nil {
			t.Fatal(err)
		}
		boom := transport.NewStatusError("add artifacts", 500, "oops")
		mem.AddArtifactsErr = boom

		_, err := s.AddArtifacts(ctx, nil)
		if err != error(boom) {
			t.Errorf("AddArtifacts() error = %v, want transport error unmodified", err)
		}
	})
}

func TestSession_StartBuild(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces previous build and execution", func(t *testing.T) {
		mem := transport.NewMemoryTransport()
		s := NewSession(mem)

		if _, err := s.StartBuild(ctx, "first", "t", "e", "c"); err != nil {
			t.Fatal(err)
		}
		s.StartTest("unsaved", "suite")
		mustNoErr(t, s.Info("x"))

		build, err := s.StartBuild(ctx, "second", "t", "e", "c")
		if err != nil {
			t.Fatal(err)
		}
		if build.ID != "build-2" {
			t.Errorf("build.ID = %q, want build-2", build.ID)
		}
		if s.CurrentExecution() != nil {
			t.Error("StartBuild should drop the unsaved execution")
		}
		if s.State() != StateHasBuild {
			t.Errorf("State() = %v, want %v", s.State(), StateHasBuild)
		}
	})

	t.Run("failure leaves session untouched", func(t *testing.T) {
		s, mem := newTestSession(t)
		if _, err := s.StartBuild(ctx, "first", "t", "e", "c"); err != nil {
			t.Fatal(err)
		}
		boom := &transport.TransportError{Op: "create build", Err: transport.ErrUnavailable}
		mem.CreateBuildErr = boom

		_, err := s.StartBuild(ctx, "second", "t", "e", "c")
		if err != error(boom) {
			t.Errorf("StartBuild() error = %v, want %v", err, boom)
		}
		if s.CurrentBuild().Name != "first" {
			t.Errorf("current build = %q, want first", s.CurrentBuild().Name)
		}
	})
}

func TestSession_StartTestWithoutBuild(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestSession(t)

	s.StartTest("orphan", "suite")
	if s.CurrentExecution().BuildID != "" {
		t.Errorf("BuildID = %q, want empty", s.CurrentExecution().BuildID)
	}
	mustNoErr(t, s.Pass("p", "", "", ""))

	_, err := s.SaveTest(ctx)
	if !errors.Is(err, transport.ErrTransport) {
		t.Errorf("SaveTest() error = %v, want remote validation failure", err)
	}
	if len(mem.Calls()) != 1 {
		t.Errorf("transport calls = %v, want the save attempt", mem.Calls())
	}
}

func TestSession_Preconditions(t *testing.T) {
	s, mem := newTestSession(t)

	if err := s.AddAction("x"); !errors.Is(err, ErrNoCurrentExecution) {
		t.Errorf("AddAction() error = %v, want ErrNoCurrentExecution", err)
	}
	if err := s.Info("x"); !errors.Is(err, ErrNoCurrentExecution) {
		t.Errorf("Info() error = %v, want ErrNoCurrentExecution", err)
	}
	if _, err := s.SaveTest(context.Background()); !errors.Is(err, ErrNoCurrentExecution) {
		t.Errorf("SaveTest() error = %v, want ErrNoCurrentExecution", err)
	}
	if len(mem.Calls()) != 0 {
		t.Errorf("transport calls = %v, want none", mem.Calls())
	}
	if s.State() != StateNoBuild {
		t.Errorf("State() = %v, want %v", s.State(), StateNoBuild)
	}
}

func TestSession_InvalidStatus(t *testing.T) {
	s, _ := newTestSession(t)
	s.StartTest("t", "s")

	err := s.AddStep("bad", "", "", "", contracts.StepState("SKIPPED"), "")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("AddStep() error = %v, want ErrInvalidStatus", err)
	}
	if len(s.CurrentExecution().Actions) != 0 {
		t.Error("invalid step should not open an implicit action")
	}
}

func TestSession_StateTransitions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	steps := []struct {
		name string
		do   func() error
		want State
	}{
		{"start", func() error { return nil }, StateNoBuild},
		{"StartBuild", func() error { _, err := s.StartBuild(ctx, "b", "t", "e", "c"); return err }, StateHasBuild},
		{"StartTest", func() error { s.StartTest("t", "s"); return nil }, StateHasExecution},
		{"AddAction", func() error { return s.AddAction("a") }, StateHasAction},
		{"SaveTest", func() error { _, err := s.SaveTest(ctx); return err }, StateHasBuild},
		{"StartTest again", func() error { s.StartTest("t2", "s"); return nil }, StateHasExecution},
		{"lazy step", func() error { return s.Info("i") }, StateHasAction},
		{"StartBuild resets", func() error { _, err := s.StartBuild(ctx, "b2", "t", "e", "c"); return err }, StateHasBuild},
	}

	for _, st := range steps {
		if err := st.do(); err != nil {
			t.Fatalf("%s: error = %v", st.name, err)
		}
		if got := s.State(); got != st.want {
			t.Errorf("%s: State() = %v, want %v", st.name, got, st.want)
		}
	}
}

func TestSession_CurrentExecutionIsACopy(t *testing.T) {
	s, _ := newTestSession(t)
	s.StartTest("t", "s")
	mustNoErr(t, s.Info("one"))

	exec := s.CurrentExecution()
	exec.Actions[0].Steps[0].Info = "tampered"
	exec.Actions = append(exec.Actions, contracts.Action{Name: "extra"})

	again := s.CurrentExecution()
	if again.Actions[0].Steps[0].Info != "one" || len(again.Actions) != 1 {
		t.Errorf("session state was mutated through CurrentExecution(): %+v", again)
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
