// Package mcp checks that an installed MCP server entry actually starts and
// answers the protocol handshake.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/revolution/boost-copilot/internal/mcpconfig"
)

// ClientName identifies this tool to probed servers.
const ClientName = "boost-copilot"

// ClientVersion is reported to probed servers. Set from main.
var ClientVersion = "dev"

// ErrNoCommand is returned for an entry without a command.
var ErrNoCommand = errors.New("server entry has no command")

// Report is what a successful probe learned about the server.
type Report struct {
	ServerName      string   `json:"server_name"`
	ServerVersion   string   `json:"server_version"`
	ProtocolVersion string   `json:"protocol_version"`
	Tools           []string `json:"tools"`
}

// Probe launches the server described by entry over stdio with dir as its
// working directory, performs the initialize handshake and lists its tools.
// The process is stopped before Probe returns.
func Probe(ctx context.Context, dir string, entry mcpconfig.ServerEntry) (*Report, error) {
	if entry.Command == "" {
		return nil, ErrNoCommand
	}

	c, err := client.NewStdioMCPClientWithOptions(entry.Command, Environ(entry.Env), entry.Args,
		transport.WithCommandFunc(CommandIn(dir)))
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", entry.Command, err)
	}
	defer c.Close()

	return ProbeClient(ctx, c)
}

// CommandIn builds server processes that run in dir, so relative commands
// and the artisan argument resolve against the project.
func CommandIn(dir string) transport.CommandFunc {
	return func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Dir = dir
		cmd.Env = env
		return cmd, nil
	}
}

// ProbeClient runs the handshake against an already started client.
func ProbeClient(ctx context.Context, c *client.Client) (*Report, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    ClientName,
		Version: ClientVersion,
	}

	res, err := c.Initialize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	report := &Report{
		ServerName:      res.ServerInfo.Name,
		ServerVersion:   res.ServerInfo.Version,
		ProtocolVersion: res.ProtocolVersion,
		Tools:           []string{},
	}

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("tools/list failed: %w", err)
	}
	for _, t := range tools.Tools {
		report.Tools = append(report.Tools, t.Name)
	}
	sort.Strings(report.Tools)

	return report, nil
}

// Environ returns the current process environment with env appended in
// key order, so entry variables take precedence.
func Environ(env map[string]string) []string {
	out := os.Environ()

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
