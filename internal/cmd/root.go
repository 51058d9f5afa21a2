package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/revolution/boost-copilot/internal/adapter"
	"github.com/revolution/boost-copilot/internal/config"
	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/guidelines"
	"github.com/revolution/boost-copilot/internal/logger"
	"github.com/revolution/boost-copilot/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "boost-copilot",
	Short: "Install Laravel Boost for GitHub Copilot CLI",
	Long: `boost-copilot wires the Laravel Boost MCP server into GitHub Copilot CLI.

It writes the Boost guidelines to .github/instructions and merges the
server entry into .github/mcp-config.json without touching other servers.

Quick start:
  boost-copilot install   Write guidelines and register the MCP server
  boost-copilot doctor    Check the installation`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	rootDir     string
	verbose     bool
	versionJSON bool
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo records build metadata set via ldflags in main.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
	mcp.ClientVersion = version
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
	rootCmd.SetVersionTemplate("boost-copilot {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output version information as JSON")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), versionJSON)
	},
}

func printVersion(w io.Writer, asJSON bool) {
	if asJSON {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"version": version,
			"commit":  commit,
			"date":    date,
		})
		return
	}
	fmt.Fprintf(w, "boost-copilot %s (%s, %s)\n", version, commit, date)
}

// session is everything a command needs for one run against a project.
type session struct {
	root    string
	cfg     *config.Config
	runtime environment.Context
	log     *logger.Logger
	agent   adapter.Adapter
}

// sessionFromFlags builds a session from --dir, --verbose and the process environment.
func sessionFromFlags(cmd *cobra.Command) (*session, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}

	rt, err := environment.FromEnv()
	if err != nil {
		return nil, err
	}

	return newSession(root, rt, logger.New(cmd.ErrOrStderr(), verbose))
}

func newSession(root string, rt environment.Context, log *logger.Logger) (*session, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	a, err := newAgent(root, cfg, rt, log)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", root).
		Str("agent", a.Name()).
		Bool("package_dev", rt.PackageDev).
		Bool("wsl", rt.WSL).
		Str("platform", string(rt.Platform)).
		Msg("session ready")

	return &session{
		root:    root,
		cfg:     cfg,
		runtime: rt,
		log:     log,
		agent:   a,
	}, nil
}

func newAgent(root string, cfg *config.Config, rt environment.Context, log *logger.Logger) (adapter.Adapter, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	a, ok := adapter.New(cfg.Agent, adapter.Options{
		Root:    root,
		Runtime: rt,
		Logger:  log,
		Policy:  policy,
	})
	if !ok {
		return nil, fmt.Errorf("unknown agent '%s' (available: %s)", cfg.Agent, strings.Join(adapter.Names(), ", "))
	}
	return a, nil
}

func projectRoot() (string, error) {
	if rootDir == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve --dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	return abs, nil
}

// path resolves a project-relative path against the session root.
func (s *session) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// guidelineData is the template data for this project with the given server key.
func (s *session) guidelineData(key string) guidelines.Data {
	data := guidelines.NewData(s.runtime)
	data.ServerKey = key
	data.ConfigPath = s.agent.MCPConfigPath()
	return data
}
