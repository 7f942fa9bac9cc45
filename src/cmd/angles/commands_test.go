package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseArtifacts(t *testing.T) {
	artifacts, err := parseArtifacts([]string{"com.example:app:1.0", "org:lib:2"})
	if err != nil {
		t.Fatalf("parseArtifacts() error = %v", err)
	}
	if len(artifacts) != 2 || artifacts[1].ArtifactID != "lib" {
		t.Errorf("parseArtifacts() = %+v", artifacts)
	}

	if _, err := parseArtifacts([]string{"broken"}); err == nil {
		t.Error("parseArtifacts() expected error for malformed artifact")
	}
}

func TestParseReports(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.xml")
	b := filepath.Join(dir, "b.xml")
	os.WriteFile(a, []byte(`<testsuite name="A"><testcase name="x"/></testsuite>`), 0o644)
	os.WriteFile(b, []byte(`<testsuites><testsuite name="B1"/><testsuite name="B2"/></testsuites>`), 0o644)

	suites, err := parseReports([]string{a, b})
	if err != nil {
		t.Fatalf("parseReports() error = %v", err)
	}
	if len(suites) != 3 || suites[0].Name != "A" || suites[2].Name != "B2" {
		t.Errorf("parseReports() = %+v", suites)
	}

	if _, err := parseReports([]string{a, filepath.Join(dir, "missing.xml")}); err == nil {
		t.Error("parseReports() expected error for missing file")
	}
}
