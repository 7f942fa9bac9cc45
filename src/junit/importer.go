package junit

import (
	"context"
	"fmt"
	"strings"

	"angles-reporter/src/contracts"
	"angles-reporter/src/logger"
	"angles-reporter/src/reporter"
	"angles-reporter/src/sanitize"
)

// DefaultActionName is used for cases without a classname.
const DefaultActionName = "junit"

// Options controls how suites are replayed.
type Options struct {
	// MaxTraceLines limits the stack trace stored in a step's info. 0 means no limit.
	MaxTraceLines int

	// IncludeSystemOut records non-empty <system-out> as an INFO step before the result.
	IncludeSystemOut bool

	Logger logger.Logger
}

// Summary counts what an import sent.
type Summary struct {
	Suites  int
	Tests   int
	Passed  int
	Failed  int
	Errored int
	Skipped int
	Acks    []contracts.ExecutionAck
}

// Import replays every test case as one execution on the session's current
// build: StartTest, one action named after the classname, the result step,
// then SaveTest. The first transport or precondition error aborts the import
// and is returned with the summary of what was already saved.
func Import(ctx context.Context, session *reporter.Session, suites []TestSuite, opts Options) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}

	var summary Summary
	if session.State() == reporter.StateNoBuild {
		return summary, fmt.Errorf("import junit: %w", reporter.ErrNoCurrentBuild)
	}

	for _, suite := range suites {
		summary.Suites++
		log.Info("[JUnit] Importing suite %q (%d cases)", suite.Name, len(suite.TestCases))

		for i := range suite.TestCases {
			tc := &suite.TestCases[i]
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			ack, err := importCase(ctx, session, suite.Name, tc, opts)
			if err != nil {
				return summary, fmt.Errorf("import %s: %w", tc.FullName(), err)
			}

			summary.Tests++
			switch tc.Status() {
			case contracts.StepPass:
				summary.Passed++
			case contracts.StepFail:
				summary.Failed++
			case contracts.StepError:
				summary.Errored++
			case contracts.StepInfo:
				summary.Skipped++
			}
			summary.Acks = append(summary.Acks, *ack)
			log.Debug("[JUnit] Saved %s as %s (%s)", tc.FullName(), ack.ID, tc.Status())
		}
	}

	return summary, nil
}

func importCase(ctx context.Context, session *reporter.Session, suite string, tc *TestCase, opts Options) (*contracts.ExecutionAck, error) {
	session.StartTest(tc.Name, suite)

	action := tc.ClassName
	if action == "" {
		action = DefaultActionName
	}
	if err := session.AddAction(action); err != nil {
		return nil, err
	}

	if opts.IncludeSystemOut {
		if out := sanitize.Clean(tc.SystemOut); out != "" {
			if err := session.Info(out); err != nil {
				return nil, err
			}
		}
	}

	if err := recordResult(session, tc, opts.MaxTraceLines); err != nil {
		return nil, err
	}

	return session.SaveTest(ctx)
}

func recordResult(session *reporter.Session, tc *TestCase, maxTraceLines int) error {
	message := sanitize.Clean(tc.Message())
	duration := fmt.Sprintf("%.3fs", tc.Time)

	switch status := tc.Status(); status {
	case contracts.StepPass:
		return session.Pass(tc.Name, "pass", "pass", duration)
	case contracts.StepInfo:
		info := "skipped"
		if message != "" {
			info += ": " + message
		}
		return session.Info(info)
	default:
		info := duration
		if trace := sanitize.Lines(tc.StackTrace(), maxTraceLines); len(trace) > 0 {
			info = strings.Join(trace, "\n")
		}
		return session.AddStep(tc.Name, "pass", message, info, status, "")
	}
}
