//go:build integration

package angles

import (
	"context"
	"os"
	"testing"
	"time"

	"angles-reporter/src/reporter"
)

func TestAnglesIntegration(t *testing.T) {
	baseURL := os.Getenv("ANGLES_BASE_URL")
	if baseURL == "" {
		t.Skip("ANGLES_BASE_URL not set, skipping integration test")
	}

	team := os.Getenv("TEST_ANGLES_TEAM")
	env := os.Getenv("TEST_ANGLES_ENVIRONMENT")
	component := os.Getenv("TEST_ANGLES_COMPONENT")
	if team == "" || env == "" || component == "" {
		t.Skip("TEST_ANGLES_TEAM, TEST_ANGLES_ENVIRONMENT and TEST_ANGLES_COMPONENT must be set")
	}

	ctx := context.Background()
	session := reporter.NewSession(NewTransport(NewClient(baseURL, os.Getenv("ANGLES_API_TOKEN"), 10*time.Second)))

	build, err := session.StartBuild(ctx, "integration-"+time.Now().UTC().Format("20060102T150405"), team, env, component)
	if err != nil {
		t.Fatalf("StartBuild failed: %v", err)
	}

	session.StartTest("integration round trip", "angles-reporter")
	if err := session.AddAction("smoke"); err != nil {
		t.Fatal(err)
	}
	if err := session.Pass("service reachable", "200", "200", ""); err != nil {
		t.Fatal(err)
	}

	ack, err := session.SaveTest(ctx)
	if err != nil {
		t.Fatalf("SaveTest failed: %v", err)
	}

	t.Logf("Saved execution %s against build %s", ack.ID, build.ID)
}
