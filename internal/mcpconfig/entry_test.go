package mcpconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildServerEntry_WithoutEnv(t *testing.T) {
	e := BuildServerEntry("php", []string{"artisan", "boost:mcp"}, map[string]string{})

	assert.Equal(t, ServerEntry{
		Type:    "local",
		Command: "php",
		Args:    []string{"artisan", "boost:mcp"},
		Tools:   []string{"*"},
	}, e)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"local","command":"php","args":["artisan","boost:mcp"],"tools":["*"]}`, string(data))
	assert.NotContains(t, string(data), "env")
}

func TestBuildServerEntry_WithEnv(t *testing.T) {
	e := BuildServerEntry("php", []string{"boost:mcp"}, map[string]string{"FOO": "bar"})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"local","command":"php","args":["boost:mcp"],"env":{"FOO":"bar"},"tools":["*"]}`, string(data))
}

func TestBuildServerEntry_FieldOrder(t *testing.T) {
	e := BuildServerEntry("php", []string{"boost:mcp"}, map[string]string{"FOO": "bar"})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"local","command":"php","args":["boost:mcp"],"env":{"FOO":"bar"},"tools":["*"]}`, string(data))
}

func TestBuildServerEntry_CopiesInputs(t *testing.T) {
	args := []string{"artisan", "boost:mcp"}
	env := map[string]string{"A": "1"}

	e := BuildServerEntry("php", args, env)
	args[0] = "changed"
	env["A"] = "changed"

	assert.Equal(t, "artisan", e.Args[0])
	assert.Equal(t, "1", e.Env["A"])
}

func TestBuildServerEntry_NilArgs(t *testing.T) {
	e := BuildServerEntry("php", nil, nil)

	assert.NotNil(t, e.Args)
	assert.Empty(t, e.Args)
	assert.Nil(t, e.Env)
}
