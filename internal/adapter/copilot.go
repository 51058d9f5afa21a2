package adapter

import (
	"path"
	"strings"

	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/mcpconfig"
)

// CopilotCLIName is the registry name of the GitHub Copilot CLI adapter.
const CopilotCLIName = "copilot-cli"

const testbenchCommand = "./vendor/bin/testbench"

// defaultServerArgs launches the Boost MCP server through artisan.
var defaultServerArgs = []string{"artisan", "boost:mcp"}

func init() {
	Register(CopilotCLIName, func(opts Options) Adapter {
		return NewCopilotCLI(opts)
	})
}

// CopilotCLI is the adapter for GitHub Copilot CLI.
type CopilotCLI struct {
	opts   Options
	writer *mcpconfig.Writer
}

// NewCopilotCLI returns the Copilot CLI adapter for the given run.
func NewCopilotCLI(opts Options) *CopilotCLI {
	return &CopilotCLI{
		opts: opts,
		writer: mcpconfig.NewWriter(
			mcpconfig.WithPolicy(opts.Policy),
			mcpconfig.WithLogger(opts.logger()),
		),
	}
}

func (c *CopilotCLI) Name() string {
	return CopilotCLIName
}

func (c *CopilotCLI) DisplayName() string {
	return "GitHub Copilot CLI"
}

func (c *CopilotCLI) AgentName() string {
	return "GitHub Copilot(Custom instructions)"
}

func (c *CopilotCLI) SystemDetection(p environment.Platform) Detection {
	switch p {
	case environment.Windows:
		return Detection{Command: "where copilot 2>nul"}
	default:
		return Detection{Command: "command -v copilot"}
	}
}

func (c *CopilotCLI) ProjectDetection() Detection {
	return Detection{
		Paths: []string{".github/instructions"},
		Files: []string{
			".github/copilot-instructions.md",
			".github/instructions/laravel-boost.instructions.md",
			"AGENTS.md",
			"CLAUDE.md",
			"GEMINI.md",
		},
	}
}

func (c *CopilotCLI) GuidelinesPath() string {
	return ".github/instructions/laravel-boost.instructions.md"
}

func (c *CopilotCLI) MCPConfigPath() string {
	return ".github/mcp-config.json"
}

func (c *CopilotCLI) MCPConfigKey() string {
	return "mcpServers"
}

func (c *CopilotCLI) InstallStrategy() InstallStrategy {
	return StrategyFile
}

// ConvertCommand maps the command the installer would run to the one
// Copilot CLI should launch. Package development always uses testbench;
// a WSL wrapper becomes php and any sail path becomes the project's sail.
func (c *CopilotCLI) ConvertCommand(command string) string {
	if c.opts.Runtime.PackageDev {
		return testbenchCommand
	}

	switch path.Base(strings.ReplaceAll(command, `\`, "/")) {
	case "wsl", "wsl.exe":
		return "php"
	case "sail":
		return "./vendor/bin/sail"
	default:
		return command
	}
}

// ServerArgs returns the arguments for the MCP server command. No args
// means the artisan default; package development drops "artisan" since
// testbench takes the command directly.
func (c *CopilotCLI) ServerArgs(args []string) []string {
	if len(args) == 0 {
		args = defaultServerArgs
	}
	if !c.opts.Runtime.PackageDev {
		return append([]string{}, args...)
	}

	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "artisan" {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ServerEntry builds the entry InstallMCP writes.
func (c *CopilotCLI) ServerEntry(command string, args []string, env map[string]string) mcpconfig.ServerEntry {
	return mcpconfig.BuildServerEntry(c.ConvertCommand(command), c.ServerArgs(args), env)
}

// InstallMCP writes the server entry under mcpServers.<key> in the
// project's .github/mcp-config.json, keeping every other server.
func (c *CopilotCLI) InstallMCP(key, command string, args []string, env map[string]string) error {
	return c.writer.Install(c.ConfigFile(), c.entryKey(key), c.ServerEntry(command, args, env))
}

// RemoveMCP deletes the server entry for key if present.
func (c *CopilotCLI) RemoveMCP(key string) error {
	return c.writer.Remove(c.ConfigFile(), c.entryKey(key))
}

// InstalledEntry reads back the entry for key.
func (c *CopilotCLI) InstalledEntry(key string) (mcpconfig.ServerEntry, bool, error) {
	var entry mcpconfig.ServerEntry
	doc, err := c.writer.Read(c.ConfigFile())
	if err != nil {
		return entry, false, err
	}
	found, err := doc.Decode(c.entryKey(key), &entry)
	return entry, found, err
}

// ConfigFile is the MCP config path resolved against the project root.
func (c *CopilotCLI) ConfigFile() string {
	return c.opts.resolve(c.MCPConfigPath())
}

func (c *CopilotCLI) entryKey(key string) string {
	return c.MCPConfigKey() + "." + key
}
