package mcpconfig

const (
	// EntryTypeLocal marks a server launched as a local process.
	EntryTypeLocal = "local"
	// AllTools grants every tool the server exposes.
	AllTools = "*"
)

// ServerEntry describes how Copilot CLI launches one MCP server.
// Field order matches the order written to disk.
type ServerEntry struct {
	Type    string            `json:"type" yaml:"type"`
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args" yaml:"args"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Tools   []string          `json:"tools" yaml:"tools"`
}

// BuildServerEntry returns a local server entry granting all tools.
// env is only included when it has at least one variable.
func BuildServerEntry(command string, args []string, env map[string]string) ServerEntry {
	e := ServerEntry{
		Type:    EntryTypeLocal,
		Command: command,
		Args:    append([]string{}, args...),
		Tools:   []string{AllTools},
	}

	if len(env) > 0 {
		e.Env = make(map[string]string, len(env))
		for k, v := range env {
			e.Env[k] = v
		}
	}

	return e
}
