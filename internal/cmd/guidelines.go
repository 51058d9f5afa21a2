package cmd

import (
	"fmt"
	"io"

	"github.com/revolution/boost-copilot/internal/guidelines"
	"github.com/spf13/cobra"
)

var guidelinesStdout bool

func init() {
	rootCmd.AddCommand(guidelinesCmd)
	guidelinesCmd.Flags().BoolVar(&guidelinesStdout, "stdout", false, "Print the guidelines instead of writing the file")
}

var guidelinesCmd = &cobra.Command{
	Use:   "guidelines",
	Short: "Write the Copilot CLI guidelines file",
	Long: `Renders the Boost guidelines for Copilot CLI into
.github/instructions/laravel-boost.instructions.md.

The package development section is included when TESTBENCH_CORE or
BOOST_PACKAGE_DEV is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionFromFlags(cmd)
		if err != nil {
			return err
		}
		return runGuidelines(cmd.OutOrStdout(), s, guidelinesStdout)
	},
}

func runGuidelines(w io.Writer, s *session, toStdout bool) error {
	if toStdout {
		out, err := guidelines.Render(s.guidelineData(s.cfg.Server.Key))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	if err := writeGuidelines(s, s.cfg.Server.Key); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", s.agent.GuidelinesPath())
	return nil
}
