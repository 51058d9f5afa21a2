// Package guidelines renders the instructions file Copilot CLI reads from
// .github/instructions.
package guidelines

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/fs"
)

//go:embed templates/core.md.tmpl
var coreTemplate string

var core = template.Must(template.New("core").Parse(coreTemplate))

const (
	DefaultServerKey  = "laravel-boost"
	DefaultConfigPath = ".github/mcp-config.json"
)

// Data is what the core template is rendered with.
type Data struct {
	PackageDev bool
	ServerKey  string
	ConfigPath string
}

// NewData fills Data from the runtime context with the default server key
// and config path.
func NewData(rt environment.Context) Data {
	return Data{
		PackageDev: rt.PackageDev,
		ServerKey:  DefaultServerKey,
		ConfigPath: DefaultConfigPath,
	}
}

// Render returns the guidelines text. Output always ends with a newline.
func Render(d Data) (string, error) {
	if d.ServerKey == "" {
		d.ServerKey = DefaultServerKey
	}
	if d.ConfigPath == "" {
		d.ConfigPath = DefaultConfigPath
	}

	var buf bytes.Buffer
	if err := core.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render guidelines: %w", err)
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return string(out) + "\n", nil
}

// Write renders the guidelines and writes them to path, creating parent
// directories.
func Write(path string, d Data) error {
	content, err := Render(d)
	if err != nil {
		return err
	}
	if err := fs.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return fs.WriteFileAtomic(path, []byte(content))
}
