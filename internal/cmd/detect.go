package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/revolution/boost-copilot/internal/adapter"
	"github.com/revolution/boost-copilot/internal/detect"
	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/fs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	detectPlatform string
	detectJSON     bool
	detectYAML     bool
)

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVar(&detectPlatform, "platform", "", "Platform to describe: "+environment.PlatformNames()+" (default: current)")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Output as JSON")
	detectCmd.Flags().BoolVar(&detectYAML, "yaml", false, "Output as YAML")
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show how Copilot CLI is detected",
	Long: `Prints the system probe and the project files used to detect
GitHub Copilot CLI, and which of those files exist in the project.

Inside WSL the Linux probe is reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionFromFlags(cmd)
		if err != nil {
			return err
		}

		platform := s.runtime.DetectionPlatform()
		if detectPlatform != "" {
			if platform, err = environment.ParsePlatform(detectPlatform); err != nil {
				return err
			}
		}

		report := buildDetectReport(s, platform)
		switch {
		case detectJSON:
			return report.writeJSON(cmd.OutOrStdout())
		case detectYAML:
			return report.writeYAML(cmd.OutOrStdout())
		default:
			report.print(cmd.OutOrStdout())
			return nil
		}
	},
}

type detectReport struct {
	Agent    string               `json:"agent" yaml:"agent"`
	Name     string               `json:"name" yaml:"name"`
	Platform environment.Platform `json:"platform" yaml:"platform"`
	System   adapter.Detection    `json:"system" yaml:"system"`
	Project  adapter.Detection    `json:"project" yaml:"project"`
	Found    []string             `json:"found" yaml:"found"`
	Stack    *detect.Detection    `json:"stack,omitempty" yaml:"stack,omitempty"`
}

func buildDetectReport(s *session, platform environment.Platform) detectReport {
	project := s.agent.ProjectDetection()

	found := []string{}
	for _, p := range project.Paths {
		if fs.DirExists(s.path(p)) {
			found = append(found, p)
		}
	}
	for _, f := range project.Files {
		if fs.FileExists(s.path(f)) {
			found = append(found, f)
		}
	}

	stack, err := detect.Scan(s.root)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not read project stack")
	}

	return detectReport{
		Agent:    s.agent.Name(),
		Name:     s.agent.DisplayName(),
		Platform: platform,
		System:   s.agent.SystemDetection(platform),
		Project:  project,
		Found:    found,
		Stack:    stack,
	}
}

func (r detectReport) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r detectReport) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

func (r detectReport) print(w io.Writer) {
	fmt.Fprintf(w, "%s (%s)\n", r.Name, r.Agent)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "System probe (%s):\n", r.Platform)
	fmt.Fprintf(w, "  %s\n", r.System.Command)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Project markers:")
	for _, p := range r.Project.Paths {
		fmt.Fprintf(w, "  %s/\n", p)
	}
	for _, f := range r.Project.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintln(w)

	if len(r.Found) == 0 {
		fmt.Fprintln(w, "No project markers found.")
	} else {
		fmt.Fprintln(w, "Found in project:")
		for _, f := range r.Found {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	if r.Stack != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Project: %s\n", r.Stack.Summary())
	}
}
