package junit

import (
	"context"
	"errors"
	"testing"

	"angles-reporter/src/contracts"
	"angles-reporter/src/reporter"
	"angles-reporter/src/transport"
)

const mixedReport = `<?xml version="1.0" encoding="UTF-8"?>
<testsuite name="checkout" tests="4">
  <testcase name="adds item" classname="CartTest" time="0.2"/>
  <testcase name="applies coupon" classname="CartTest" time="0.4">
    <failure message="expected 10 got 12">
      at CartTest.applies(CartTest.java:20)
      at CartTest.run(CartTest.java:5)
    </failure>
    <system-out>
      warn: slow pricing call
    </system-out>
  </testcase>
  <testcase name="pays" time="1.0">
    <error message="timeout"/>
  </testcase>
  <testcase name="refunds" classname="PaymentTest">
    <skipped message="sandbox down"/>
  </testcase>
</testsuite>`

func startedSession(t *testing.T) (*reporter.Session, *transport.MemoryTransport) {
	t.Helper()
	mem := transport.NewMemoryTransport()
	session := reporter.NewSession(mem)
	if _, err := session.StartBuild(context.Background(), "nightly", "team", "qa", "shop"); err != nil {
		t.Fatalf("StartBuild() error = %v", err)
	}
	return session, mem
}

func TestImport_OneExecutionPerCase(t *testing.T) {
	suites, err := Parse([]byte(mixedReport))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	session, mem := startedSession(t)
	summary, err := Import(context.Background(), session, suites, Options{MaxTraceLines: 1, IncludeSystemOut: true})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if summary.Suites != 1 || summary.Tests != 4 {
		t.Errorf("summary = %+v, expected 1 suite and 4 tests", summary)
	}
	if summary.Passed != 1 || summary.Failed != 1 || summary.Errored != 1 || summary.Skipped != 1 {
		t.Errorf("summary counts = %+v", summary)
	}
	if len(summary.Acks) != 4 {
		t.Errorf("acks = %d, expected 4", len(summary.Acks))
	}

	executions := mem.Executions()
	if len(executions) != 4 {
		t.Fatalf("saved %d executions, expected 4", len(executions))
	}

	expected := []struct {
		title  string
		action string
		status contracts.StepState
	}{
		{"adds item", "CartTest", contracts.StepPass},
		{"applies coupon", "CartTest", contracts.StepFail},
		{"pays", DefaultActionName, contracts.StepError},
		{"refunds", "PaymentTest", contracts.StepInfo},
	}
	for i, want := range expected {
		exec := executions[i]
		if exec.Title != want.title || exec.Suite != "checkout" {
			t.Errorf("execution %d = %s/%s, expected %s/checkout", i, exec.Title, exec.Suite, want.title)
		}
		if len(exec.Actions) != 1 || exec.Actions[0].Name != want.action {
			t.Errorf("execution %d actions = %+v, expected one named %s", i, exec.Actions, want.action)
			continue
		}
		if got := exec.Status(); got != want.status {
			t.Errorf("execution %d status = %s, expected %s", i, got, want.status)
		}
	}

	coupon := executions[1].Actions[0].Steps
	if len(coupon) != 2 {
		t.Fatalf("applies coupon steps = %d, expected system-out INFO then FAIL", len(coupon))
	}
	if coupon[0].Info != "warn: slow pricing call" {
		t.Errorf("system-out info = %q, expected trimmed output", coupon[0].Info)
	}
	if coupon[1].Actual != "expected 10 got 12" {
		t.Errorf("actual = %q", coupon[1].Actual)
	}
	if coupon[1].Info != "at CartTest.applies(CartTest.java:20)" {
		t.Errorf("info = %q, expected first trace line only", coupon[1].Info)
	}

	skipped := executions[3].Actions[0].Steps[0]
	if skipped.Info != "skipped: sandbox down" {
		t.Errorf("skipped info = %q", skipped.Info)
	}
}

func TestImport_RequiresBuild(t *testing.T) {
	session := reporter.NewSession(transport.NewMemoryTransport())
	suites := []TestSuite{{Name: "s", TestCases: []TestCase{{Name: "a"}}}}

	_, err := Import(context.Background(), session, suites, Options{})
	if !errors.Is(err, reporter.ErrNoCurrentBuild) {
		t.Errorf("Import() error = %v, expected ErrNoCurrentBuild", err)
	}
}

func TestImport_AbortsOnTransportError(t *testing.T) {
	session, mem := startedSession(t)
	mem.SaveExecutionErr = &transport.TransportError{Op: "save execution", StatusCode: 500}

	suites := []TestSuite{{Name: "s", TestCases: []TestCase{{Name: "a"}, {Name: "b"}}}}
	summary, err := Import(context.Background(), session, suites, Options{})

	if !errors.Is(err, transport.ErrTransport) {
		t.Fatalf("Import() error = %v, expected transport error", err)
	}
	if summary.Tests != 0 {
		t.Errorf("Tests = %d, expected 0", summary.Tests)
	}

	saves := 0
	for _, call := range mem.Calls() {
		if call == "SaveExecution" {
			saves++
		}
	}
	if saves != 1 {
		t.Errorf("SaveExecution called %d times, expected import to stop after the first", saves)
	}
}

func TestImport_CanceledContext(t *testing.T) {
	session, mem := startedSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	suites := []TestSuite{{Name: "s", TestCases: []TestCase{{Name: "a"}}}}
	if _, err := Import(ctx, session, suites, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Import() error = %v, expected context.Canceled", err)
	}
	if got := len(mem.Executions()); got != 0 {
		t.Errorf("saved %d executions, expected 0", got)
	}
}
