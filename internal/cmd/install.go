package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/revolution/boost-copilot/internal/adapter"
	"github.com/revolution/boost-copilot/internal/detect"
	"github.com/revolution/boost-copilot/internal/guidelines"
	"github.com/spf13/cobra"
)

type installOptions struct {
	key          string
	command      string
	remove       bool
	noGuidelines bool
}

var installOpts installOptions

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVar(&installOpts.key, "key", "", "Server key under mcpServers (default from boost.yaml)")
	installCmd.Flags().StringVar(&installOpts.command, "command", "", "Command that starts PHP (default from boost.yaml)")
	installCmd.Flags().BoolVar(&installOpts.remove, "remove", false, "Remove the server entry instead of installing it")
	installCmd.Flags().BoolVar(&installOpts.noGuidelines, "no-guidelines", false, "Skip writing the guidelines file")
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the Boost MCP server with Copilot CLI",
	Long: `Writes the Boost guidelines and merges the MCP server entry into
.github/mcp-config.json. Other servers and keys in the file are kept.

Running install again produces the same file.

Examples:
  boost-copilot install
  boost-copilot install --command ./vendor/bin/sail
  boost-copilot install --key boost --no-guidelines
  boost-copilot install --remove`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionFromFlags(cmd)
		if err != nil {
			return err
		}
		return runInstall(cmd.OutOrStdout(), s, installOpts)
	},
}

func runInstall(w io.Writer, s *session, opts installOptions) error {
	inst, ok := s.agent.(adapter.MCPInstaller)
	if !ok {
		return fmt.Errorf("%s does not support file-based MCP installation", s.agent.DisplayName())
	}

	key := opts.key
	if key == "" {
		key = s.cfg.Server.Key
	}
	if key == "" || strings.Contains(key, ".") {
		return fmt.Errorf("invalid server key %q: must be non-empty and must not contain '.'", key)
	}

	configPath := s.agent.MCPConfigPath()

	if opts.remove {
		if err := inst.RemoveMCP(key); err != nil {
			return fmt.Errorf("failed to remove MCP server: %w", err)
		}
		fmt.Fprintf(w, "Removed %s from %s\n", key, configPath)
		return nil
	}

	warnPackageMode(s)

	if !opts.noGuidelines {
		if err := writeGuidelines(s, key); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", s.agent.GuidelinesPath())
	}

	command := opts.command
	if command == "" {
		command = s.cfg.Server.Command
	}

	if err := inst.InstallMCP(key, command, s.cfg.Server.Args, s.cfg.Server.Env); err != nil {
		return fmt.Errorf("failed to install MCP server: %w", err)
	}

	entry := inst.ServerEntry(command, s.cfg.Server.Args, s.cfg.Server.Env)
	fmt.Fprintf(w, "Installed %s in %s\n", key, configPath)
	fmt.Fprintf(w, "  command: %s %s\n", entry.Command, strings.Join(entry.Args, " "))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Restart Copilot CLI with:")
	fmt.Fprintf(w, "  copilot --additional-mcp-config @%s --continue\n", configPath)

	return nil
}

// warnPackageMode flags a package checkout installed without package
// development mode, which would point Copilot at a missing artisan.
func warnPackageMode(s *session) {
	if s.runtime.PackageDev {
		return
	}
	stack, err := detect.Scan(s.root)
	if err != nil {
		s.log.Debug().Err(err).Msg("skipping project scan")
		return
	}
	if stack.IsPackage() {
		s.log.Warn().
			Str("project", stack.Name).
			Msg("project looks like a package; set TESTBENCH_CORE=1 or BOOST_PACKAGE_DEV=1 to use testbench")
	}
}

func writeGuidelines(s *session, key string) error {
	if err := guidelines.Write(s.path(s.agent.GuidelinesPath()), s.guidelineData(key)); err != nil {
		return fmt.Errorf("failed to write guidelines: %w", err)
	}
	s.log.Debug().Str("path", s.agent.GuidelinesPath()).Msg("guidelines written")
	return nil
}
