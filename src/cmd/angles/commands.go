package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"angles-reporter/src/contracts"
	"angles-reporter/src/junit"
	"angles-reporter/src/mcp"
	"angles-reporter/src/render"
	"angles-reporter/src/reporter"
	"angles-reporter/src/transport"
)

var (
	buildName     string
	team          string
	environment   string
	component     string
	artifactFlags []string
	maxTraceLines int
	systemOut     bool
)

// junitCmd replays JUnit XML reports as executions of a new build.
var junitCmd = &cobra.Command{
	Use:   "junit <report.xml>...",
	Short: "Import JUnit XML reports as a new build",
	Long: `Creates a build, attaches the given artifacts and saves one execution per
JUnit test case. Each execution holds one action named after the test class
and a single PASS, FAIL, ERROR or INFO (skipped) step.

Example:
  angles junit target/surefire-reports/*.xml \
    --build nightly-42 --team payments --environment qa --component checkout \
    --artifact com.example:checkout:1.4.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, err := parseArtifacts(artifactFlags)
		if err != nil {
			return err
		}

		suites, err := parseReports(args)
		if err != nil {
			return err
		}

		session := reporter.Default()
		ctx := cmd.Context()

		build, err := session.StartBuild(ctx, buildName, team, environment, component)
		if err != nil {
			return err
		}
		if len(artifacts) > 0 {
			if build, err = session.AddArtifacts(ctx, artifacts); err != nil {
				return err
			}
		}

		summary, err := junit.Import(ctx, session, suites, junit.Options{
			MaxTraceLines:    maxTraceLines,
			IncludeSystemOut: systemOut,
			Logger:           log,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		r := render.New(nil)
		fmt.Fprintln(out, r.Build(build, 100))
		fmt.Fprintf(out, "Imported %d tests from %d suites: %d passed, %d failed, %d errors, %d skipped\n",
			summary.Tests, summary.Suites, summary.Passed, summary.Failed, summary.Errored, summary.Skipped)

		if appPipeline.Memory != nil {
			fmt.Fprintln(out)
			for _, exec := range appPipeline.Memory.Executions() {
				fmt.Fprint(out, r.Execution(exec, 100))
			}
		}
		return nil
	},
}

// teamsCmd lists teams and their components.
var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List teams and their components",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := directory()
		if err != nil {
			return err
		}

		teams, err := dir.ListTeams(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOMPONENTS")
		for _, t := range teams {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(t.Components, ", "))
		}
		return w.Flush()
	},
}

// environmentsCmd lists environments.
var environmentsCmd = &cobra.Command{
	Use:   "environments",
	Short: "List environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := directory()
		if err != nil {
			return err
		}

		envs, err := dir.ListEnvironments(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, e := range envs {
			fmt.Fprintf(w, "%s\t%s\n", e.ID, e.Name)
		}
		return w.Flush()
	},
}

// buildCmd shows one build.
var buildCmd = &cobra.Command{
	Use:   "build <id>",
	Short: "Show a build with its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := directory()
		if err != nil {
			return err
		}

		build, err := dir.GetBuild(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, render.New(nil).Build(build, 100))
		for _, a := range build.Artifacts {
			fmt.Fprintf(out, "  %s\n", a)
		}
		return nil
	},
}

// mcpCmd serves the reporting session over stdio.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the reporting session as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(os.Stderr, "angles MCP server listening on stdio")
		return mcp.NewServer(reporter.Default(), log).Run()
	},
}

func init() {
	junitCmd.Flags().StringVar(&buildName, "build", "", "Build name (required)")
	junitCmd.Flags().StringVar(&team, "team", "", "Team name (required)")
	junitCmd.Flags().StringVar(&environment, "environment", "", "Environment name (required)")
	junitCmd.Flags().StringVar(&component, "component", "", "Component name (required)")
	junitCmd.Flags().StringArrayVar(&artifactFlags, "artifact", nil, "Artifact as groupId:artifactId:version (repeatable)")
	junitCmd.Flags().IntVar(&maxTraceLines, "max-trace-lines", 20, "Stack trace lines kept per failing step (0 for all)")
	junitCmd.Flags().BoolVar(&systemOut, "system-out", false, "Record <system-out> as an INFO step")
	for _, name := range []string{"build", "team", "environment", "component"} {
		junitCmd.MarkFlagRequired(name)
	}
}

var errNoDirectory = errors.New("listing is not available in dry-run mode")

func directory() (transport.Directory, error) {
	if appPipeline.Directory == nil {
		return nil, errNoDirectory
	}
	return appPipeline.Directory, nil
}

func parseArtifacts(values []string) ([]contracts.Artifact, error) {
	artifacts := make([]contracts.Artifact, 0, len(values))
	for _, v := range values {
		a, err := contracts.ParseArtifact(v)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// parseReports parses every file before anything is sent.
func parseReports(paths []string) ([]junit.TestSuite, error) {
	var suites []junit.TestSuite
	for _, path := range paths {
		parsed, err := junit.ParseFile(path)
		if err != nil {
			return nil, err
		}
		suites = append(suites, parsed...)
	}
	return suites, nil
}
