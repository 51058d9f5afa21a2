// Package adapter provides integrations that describe one AI coding assistant
// to the Boost installer: how to detect it, where its guidelines live and
// how its MCP server configuration is written.
package adapter

import (
	"path/filepath"
	"sort"

	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/logger"
	"github.com/revolution/boost-copilot/internal/mcpconfig"
)

// Adapter defines the interface for assistant-specific behavior.
type Adapter interface {
	// Identity
	Name() string        // "copilot-cli"
	DisplayName() string // "GitHub Copilot CLI"
	AgentName() string   // label used when the assistant is offered as an agent

	// Detection descriptors. The installer runs them; adapters only describe.
	SystemDetection(p environment.Platform) Detection
	ProjectDetection() Detection

	// Paths, relative to the project root
	GuidelinesPath() string
	MCPConfigPath() string
	MCPConfigKey() string

	InstallStrategy() InstallStrategy
}

// MCPInstaller is implemented by adapters that write their own MCP config file.
type MCPInstaller interface {
	InstallMCP(key, command string, args []string, env map[string]string) error
	RemoveMCP(key string) error
	InstalledEntry(key string) (mcpconfig.ServerEntry, bool, error)
	// ServerEntry returns what InstallMCP would write, without writing it.
	ServerEntry(command string, args []string, env map[string]string) mcpconfig.ServerEntry
}

// Detection is a declarative probe description.
// Command is a shell probe; Paths are directories and Files are files that
// indicate the assistant is in use.
type Detection struct {
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Paths   []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	Files   []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// InstallStrategy names how the MCP server gets registered with the assistant.
type InstallStrategy string

const (
	StrategyFile InstallStrategy = "file"
)

// Options are handed to every adapter factory.
type Options struct {
	// Root is the project directory relative paths resolve against.
	Root    string
	Runtime environment.Context
	Logger  *logger.Logger
	// Policy controls how a malformed MCP config file is handled.
	Policy mcpconfig.Policy
}

func (o Options) resolve(rel string) string {
	if o.Root == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(o.Root, rel)
}

func (o Options) logger() *logger.Logger {
	if o.Logger == nil {
		return logger.Nop()
	}
	return o.Logger
}

// Factory builds an adapter for one run.
type Factory func(opts Options) Adapter

// registry holds all registered adapter factories
var registry = make(map[string]Factory)

// Register adds an adapter factory to the registry.
// Called by each adapter's init() function.
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds the adapter registered under name.
// Returns (adapter, true) if found, (nil, false) if not.
func New(name string, opts Options) (Adapter, bool) {
	f, ok := registry[name]
	if !ok {
		return nil, false
	}
	return f(opts), true
}

// Names returns all registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
