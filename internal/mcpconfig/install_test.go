package mcpconfig

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revolution/boost-copilot/internal/logger"
)

func configPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), ".github", "mcp-config.json")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInstall_AbsentFile(t *testing.T) {
	path := configPath(t)
	entry := BuildServerEntry("php", []string{"artisan", "boost:mcp"}, nil)

	require.NoError(t, Install(path, "mcpServers.foo", entry))

	got := readJSON(t, path)
	want := map[string]any{
		"mcpServers": map[string]any{
			"foo": map[string]any{
				"type":    "local",
				"command": "php",
				"args":    []any{"artisan", "boost:mcp"},
				"tools":   []any{"*"},
			},
		},
	}
	assert.Equal(t, want, got)
}

func TestInstall_PreservesOtherKeys(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{
  "mcpServers": {
    "existing-server": {"type": "remote", "url": "https://example.com"}
  },
  "inputs": {"token": {"secret": true}},
  "version": 2
}`)

	entry := BuildServerEntry("php", []string{"artisan", "boost:mcp"}, nil)
	require.NoError(t, Install(path, "mcpServers.laravel-boost", entry))

	got := readJSON(t, path)
	servers := got["mcpServers"].(map[string]any)
	assert.Contains(t, servers, "existing-server")
	assert.Contains(t, servers, "laravel-boost")
	assert.Equal(t, map[string]any{"type": "remote", "url": "https://example.com"}, servers["existing-server"])
	assert.Equal(t, map[string]any{"token": map[string]any{"secret": true}}, got["inputs"])
	assert.Equal(t, float64(2), got["version"])
}

func TestInstall_PrunesEmptyArraysEverywhere(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"a": {"b": []}, "c": "x"}`)

	require.NoError(t, Install(path, "a.d", map[string]string{"k": "v"}))

	got := readJSON(t, path)
	want := map[string]any{
		"a": map[string]any{"d": map[string]any{"k": "v"}},
		"c": "x",
	}
	assert.Equal(t, want, got)
}

func TestInstall_PrunesNestedAndKeepsEmptyObjects(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{
  "mcpServers": {
    "remote": {"url": "https://x.test", "headers": [], "env": {}}
  },
  "list": [[], 1, [[]], "two"],
  "only": [[[]]]
}`)

	require.NoError(t, Install(path, "mcpServers.new", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	got := readJSON(t, path)
	remote := got["mcpServers"].(map[string]any)["remote"].(map[string]any)
	assert.NotContains(t, remote, "headers")
	assert.Equal(t, map[string]any{}, remote["env"])
	assert.Equal(t, []any{float64(1), "two"}, got["list"])
	assert.NotContains(t, got, "only")
}

func TestInstall_ReinstallIsByteIdentical(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"keep": {"nested": [[]], "x": [1, 2]}, "mcpServers": {"other": {"args": []}}}`)
	entry := BuildServerEntry("php", []string{"artisan", "boost:mcp"}, map[string]string{"B": "2", "A": "1"})

	require.NoError(t, Install(path, "mcpServers.laravel-boost", entry))
	first := readFile(t, path)

	require.NoError(t, Install(path, "mcpServers.laravel-boost", entry))
	second := readFile(t, path)

	assert.Equal(t, first, second)
}

func TestInstall_InvalidUTF8ReinstallIsByteIdentical(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, "{\"k\": \"a\xffb\", \"bad\xfekey\": 1}")
	entry := BuildServerEntry("php", []string{"artisan", "boost:mcp"}, nil)

	require.NoError(t, Install(path, "mcpServers.foo", entry))
	first := readFile(t, path)

	require.NoError(t, Install(path, "mcpServers.foo", entry))
	second := readFile(t, path)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "\"a\uFFFDb\"")
	assert.Contains(t, first, "\"bad\uFFFDkey\"")
	assert.NotContains(t, first, `\ufffd`)
}

func TestInstall_NoCarriageReturns(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, "{\r\n  \"a\": \"b\",\r\n  \"list\": [\r\n    1\r\n  ]\r\n}\r\n")

	require.NoError(t, Install(path, "mcpServers.x", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	content := readFile(t, path)
	assert.NotContains(t, content, "\r")
	assert.True(t, strings.HasSuffix(content, "}\n"))
}

func TestInstall_SlashesNotEscaped(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"remote": {"url": "https:\/\/example.com\/mcp"}}`)

	require.NoError(t, Install(path, "mcpServers.x", BuildServerEntry("./vendor/bin/sail", []string{"artisan", "boost:mcp"}, nil)))

	content := readFile(t, path)
	assert.NotContains(t, content, `\/`)
	assert.Contains(t, content, `"https://example.com/mcp"`)
	assert.Contains(t, content, `"./vendor/bin/sail"`)
}

func TestInstall_PreservesKeyOrderAndNumbers(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"zeta": 1.50, "alpha": {"y": 1, "x": 2}, "mcpServers": {"b": {"command": "b"}}}`)

	require.NoError(t, Install(path, "mcpServers.a", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	content := readFile(t, path)
	assert.Contains(t, content, "1.50")

	order := []string{`"zeta"`, `"alpha"`, `"y"`, `"x"`, `"mcpServers"`, `"b"`, `"a"`, `"type"`, `"command"`, `"args"`, `"tools"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(content[last+1:], key)
		require.GreaterOrEqual(t, idx, 0, "missing %s after offset %d", key, last)
		last += idx + 1
	}
}

func TestInstall_OverwriteKeepsPosition(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"mcpServers": {"first": {"command": "old"}, "second": {"command": "s"}}}`)

	require.NoError(t, Install(path, "mcpServers.first", BuildServerEntry("new", []string{"boost:mcp"}, nil)))

	content := readFile(t, path)
	assert.Less(t, strings.Index(content, `"first"`), strings.Index(content, `"second"`))
	assert.Contains(t, content, `"new"`)
	assert.NotContains(t, content, `"old"`)
}

func TestInstall_ReplacesNonObjectIntermediate(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"mcpServers": "broken", "other": true}`)

	require.NoError(t, Install(path, "mcpServers.foo", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	got := readJSON(t, path)
	assert.Contains(t, got["mcpServers"].(map[string]any), "foo")
	assert.Equal(t, true, got["other"])
}

func TestInstall_EmptyExistingFile(t *testing.T) {
	for _, content := range []string{"", "   \n", "\xef\xbb\xbf"} {
		path := configPath(t)
		writeFile(t, path, content)

		require.NoError(t, Install(path, "mcpServers.foo", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

		got := readJSON(t, path)
		assert.Len(t, got, 1)
	}
}

func TestInstall_EnvIncludedOnlyWhenSet(t *testing.T) {
	path := configPath(t)

	require.NoError(t, Install(path, "mcpServers.a", BuildServerEntry("php", []string{"boost:mcp"}, nil)))
	require.NoError(t, Install(path, "mcpServers.b", BuildServerEntry("php", []string{"boost:mcp"}, map[string]string{"FOO": "bar"})))

	servers := readJSON(t, path)["mcpServers"].(map[string]any)
	assert.NotContains(t, servers["a"].(map[string]any), "env")
	assert.Equal(t, map[string]any{"FOO": "bar"}, servers["b"].(map[string]any)["env"])
}

func TestInstall_EmptyArgsArePruned(t *testing.T) {
	path := configPath(t)

	require.NoError(t, Install(path, "mcpServers.a", BuildServerEntry("server", nil, nil)))

	entry := readJSON(t, path)["mcpServers"].(map[string]any)["a"].(map[string]any)
	assert.NotContains(t, entry, "args")
	assert.Equal(t, []any{"*"}, entry["tools"])
}

func TestInstall_InvalidPath(t *testing.T) {
	err := Install("", "mcpServers.foo", BuildServerEntry("php", nil, nil))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestInstall_InvalidKeyPath(t *testing.T) {
	path := configPath(t)

	for _, key := range []string{"", "mcpServers.", ".foo", "a..b"} {
		err := Install(path, key, "x")
		assert.ErrorIs(t, err, ErrInvalidKeyPath, key)
	}
	assert.NoFileExists(t, path)
}

func TestInstall_SerializationFailureWritesNothing(t *testing.T) {
	path := configPath(t)

	err := Install(path, "mcpServers.foo", map[string]any{"ch": make(chan int)})

	assert.ErrorIs(t, err, ErrSerialization)
	assert.NoDirExists(t, filepath.Dir(path))
}

func TestInstall_SerializationFailureKeepsExistingFile(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"a": []}`)

	err := Install(path, "mcpServers.foo", func() {})

	assert.ErrorIs(t, err, ErrSerialization)
	assert.Equal(t, `{"a": []}`, readFile(t, path))
}

func TestInstall_DirectoryCreationFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, ".github")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

	err := Install(filepath.Join(blocker, "mcp-config.json"), "mcpServers.foo", "x")
	assert.Error(t, err)
}

func TestWriter_LenientPolicyDiscardsMalformed(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"mcpServers": {"existing": `)

	var buf bytes.Buffer
	w := NewWriter(WithLogger(logger.NewJSON(&buf, zerolog.DebugLevel)))
	require.NoError(t, w.Install(path, "mcpServers.foo", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	servers := readJSON(t, path)["mcpServers"].(map[string]any)
	assert.Len(t, servers, 1)
	assert.Contains(t, servers, "foo")
	assert.Contains(t, buf.String(), "discarding malformed config file")
}

func TestWriter_LenientPolicyTreatsNonObjectAsEmpty(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `[1, 2, 3]`)

	require.NoError(t, NewWriter().Install(path, "mcpServers.foo", "x"))

	assert.Equal(t, map[string]any{"mcpServers": map[string]any{"foo": "x"}}, readJSON(t, path))
}

func TestWriter_StrictPolicyLeavesFileUntouched(t *testing.T) {
	path := configPath(t)
	original := `{"mcpServers": {"existing": `
	writeFile(t, path, original)

	w := NewWriter(WithPolicy(PolicyStrict))
	err := w.Install(path, "mcpServers.foo", BuildServerEntry("php", nil, nil))

	assert.ErrorIs(t, err, ErrMalformedDocument)
	assert.Equal(t, original, readFile(t, path))
}

func TestWriter_RepairPolicyRecoversContent(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"existing": {"command": "node"},}`)

	w := NewWriter(WithPolicy(PolicyRepair))
	require.NoError(t, w.Install(path, "mcpServers.foo", BuildServerEntry("php", []string{"boost:mcp"}, nil)))

	got := readJSON(t, path)
	assert.Equal(t, map[string]any{"command": "node"}, got["existing"])
	assert.Contains(t, got["mcpServers"].(map[string]any), "foo")
}

func TestWriter_Remove(t *testing.T) {
	path := configPath(t)
	writeFile(t, path, `{"mcpServers": {"a": {"command": "a"}, "b": {"command": "b", "args": []}}}`)

	w := NewWriter()
	require.NoError(t, w.Remove(path, "mcpServers.a"))

	got := readJSON(t, path)
	servers := got["mcpServers"].(map[string]any)
	assert.NotContains(t, servers, "a")
	assert.Equal(t, map[string]any{"command": "b"}, servers["b"])
}

func TestWriter_RemoveMissingIsNoop(t *testing.T) {
	path := configPath(t)
	w := NewWriter()

	require.NoError(t, w.Remove(path, "mcpServers.a"))
	assert.NoFileExists(t, path)

	original := `{"mcpServers": {"b": {"args": []}}}`
	writeFile(t, path, original)
	require.NoError(t, w.Remove(path, "mcpServers.a"))
	assert.Equal(t, original, readFile(t, path))
}

func TestWriter_Read(t *testing.T) {
	path := configPath(t)
	w := NewWriter()

	doc, err := w.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Len())

	require.NoError(t, w.Install(path, "mcpServers.foo", BuildServerEntry("php", []string{"artisan", "boost:mcp"}, nil)))

	doc, err = w.Read(path)
	require.NoError(t, err)

	var entry ServerEntry
	found, err := doc.Decode("mcpServers.foo", &entry)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, BuildServerEntry("php", []string{"artisan", "boost:mcp"}, nil), entry)

	_, err = w.Read("")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"", PolicyLenient},
		{"lenient", PolicyLenient},
		{"STRICT", PolicyStrict},
		{" repair ", PolicyRepair},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParsePolicy("loose")
	assert.Error(t, err)

	assert.Equal(t, "strict", PolicyStrict.String())
	assert.Equal(t, "Policy(9)", Policy(9).String())
}
