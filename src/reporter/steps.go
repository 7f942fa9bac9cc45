package reporter

import (
	"fmt"

	"angles-reporter/src/contracts"
)

// Info records an informational step.
func (s *Session) Info(info string) error {
	return s.AddStep("INFO", "", "", info, contracts.StepInfo, "")
}

// InfoWithScreenshot records an informational step referencing a screenshot.
func (s *Session) InfoWithScreenshot(info, screenshotID string) error {
	return s.AddStep("INFO", "", "", info, contracts.StepInfo, screenshotID)
}

// Error records an error step, typically a problem in the test itself rather than the system under test.
func (s *Session) Error(msg string) error {
	return s.AddStep("ERROR", "", "", msg, contracts.StepError, "")
}

// ErrorWithScreenshot records an error step referencing a screenshot.
func (s *Session) ErrorWithScreenshot(msg, screenshotID string) error {
	return s.AddStep("ERROR", "", "", msg, contracts.StepError, screenshotID)
}

// Pass records a passing check.
func (s *Session) Pass(name, expected, actual, info string) error {
	return s.AddStep(name, expected, actual, info, contracts.StepPass, "")
}

// PassWithScreenshot records a passing check referencing a screenshot.
func (s *Session) PassWithScreenshot(name, expected, actual, info, screenshotID string) error {
	return s.AddStep(name, expected, actual, info, contracts.StepPass, screenshotID)
}

// Fail records a failing check.
func (s *Session) Fail(name, expected, actual, info string) error {
	return s.AddStep(name, expected, actual, info, contracts.StepFail, "")
}

// FailWithScreenshot records a failing check referencing a screenshot.
func (s *Session) FailWithScreenshot(name, expected, actual, info, screenshotID string) error {
	return s.AddStep(name, expected, actual, info, contracts.StepFail, screenshotID)
}

// AddStep appends one step to the current action, opening a "test-details"
// action first if none is open.
func (s *Session) AddStep(name, expected, actual, info string, status contracts.StepState, screenshotID string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if s.execution == nil {
		return precondition("add step", ErrNoCurrentExecution)
	}
	if s.action < 0 {
		if err := s.AddAction(DefaultActionName); err != nil {
			return err
		}
	}

	action := &s.execution.Actions[s.action]
	action.Steps = append(action.Steps, contracts.Step{
		Name:         name,
		Expected:     expected,
		Actual:       actual,
		Info:         info,
		Status:       status,
		Timestamp:    s.now(),
		ScreenshotID: screenshotID,
	})
	s.log.Debug("Step %s %q recorded in action %q", status, name, action.Name)

	return nil
}
