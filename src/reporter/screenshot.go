package reporter

import (
	"context"

	"angles-reporter/src/contracts"
)

// ScreenshotOutcome is the result of a best-effort screenshot save.
// Exactly one of Screenshot and Err is set.
type ScreenshotOutcome struct {
	Screenshot *contracts.Screenshot
	// Err is the transport failure that was downgraded to an ERROR step.
	Err error
}

// Degraded reports whether the upload failed and was recorded as an ERROR step instead.
func (o ScreenshotOutcome) Degraded() bool {
	return o.Err != nil
}

// ID returns the stored screenshot ID, or "" when degraded.
func (o ScreenshotOutcome) ID() string {
	if o.Screenshot == nil {
		return ""
	}
	return o.Screenshot.ID
}

// SaveScreenshot uploads a screenshot for the current build.
func (s *Session) SaveScreenshot(ctx context.Context, filePath, view string) (ScreenshotOutcome, error) {
	return s.SaveScreenshotWithPlatform(ctx, filePath, view, nil)
}

// SaveScreenshotWithPlatform uploads a screenshot for the current build tagged with platform details.
// Transport failures never abort the test: they are recorded as an ERROR step
// on the current action and returned as a degraded outcome. The error return
// is reserved for missing session state.
func (s *Session) SaveScreenshotWithPlatform(ctx context.Context, filePath, view string, platform *contracts.ScreenshotPlatform) (ScreenshotOutcome, error) {
	if s.build == nil {
		return ScreenshotOutcome{}, precondition("save screenshot", ErrNoCurrentBuild)
	}

	req := &contracts.StoreScreenshotRequest{
		BuildID:   s.build.ID,
		FilePath:  filePath,
		View:      view,
		Timestamp: s.now(),
	}

	shot, err := s.transport.SaveScreenshot(ctx, req, platform)
	if err == nil {
		return ScreenshotOutcome{Screenshot: shot}, nil
	}

	s.log.Error("Failed to save screenshot %s: %v", filePath, err)
	if stepErr := s.Error(err.Error()); stepErr != nil {
		return ScreenshotOutcome{Err: err}, stepErr
	}

	return ScreenshotOutcome{Err: err}, nil
}
