// Package detect reads a project's composer.json to tell what kind of
// Laravel project the installer is running in.
package detect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ComposerFile is the manifest Scan reads.
const ComposerFile = "composer.json"

// Kind classifies the project.
type Kind string

const (
	KindApplication Kind = "application"
	KindPackage     Kind = "package"
	KindUnknown     Kind = "unknown"
)

// Detection holds the detected project stack
type Detection struct {
	Kind       Kind        `json:"kind" yaml:"kind"`
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	PHP        string      `json:"php,omitempty" yaml:"php,omitempty"`
	Frameworks []Framework `json:"frameworks" yaml:"frameworks"`
	Testing    []string    `json:"testing" yaml:"testing"`
	Tools      []string    `json:"tools" yaml:"tools"`
}

// Framework represents a detected framework with optional version
type Framework struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

type knownPackage struct {
	pkg  string
	name string
}

// Checked in display order.
var (
	frameworkPackages = []knownPackage{
		{"laravel/framework", "Laravel"},
		{"livewire/livewire", "Livewire"},
		{"inertiajs/inertia-laravel", "Inertia"},
		{"filament/filament", "Filament"},
		{"laravel/folio", "Folio"},
		{"laravel/pennant", "Pennant"},
	}
	testingPackages = []knownPackage{
		{"pestphp/pest", "Pest"},
		{"phpunit/phpunit", "PHPUnit"},
		{"orchestra/testbench", "Testbench"},
	}
	toolPackages = []knownPackage{
		{"laravel/boost", "Boost"},
		{"laravel/sail", "Sail"},
		{"laravel/pint", "Pint"},
		{"larastan/larastan", "Larastan"},
	}
)

// Summary returns a human-readable summary
func (d *Detection) Summary() string {
	var parts []string

	for _, fw := range d.Frameworks {
		if fw.Version != "" {
			parts = append(parts, fw.Name+" "+fw.Version)
		} else {
			parts = append(parts, fw.Name)
		}
	}
	parts = append(parts, d.Testing...)
	parts = append(parts, d.Tools...)

	if len(parts) == 0 {
		return string(d.Kind)
	}
	return fmt.Sprintf("%s (%s)", d.Kind, strings.Join(parts, ", "))
}

// IsPackage reports whether the project looks like a Laravel package
// developed against Testbench rather than an application.
func (d *Detection) IsPackage() bool {
	return d.Kind == KindPackage
}

// HasTool reports whether the named tool was detected.
func (d *Detection) HasTool(name string) bool {
	return contains(d.Tools, name)
}

// Scan reads composer.json in dir. A project without one is KindUnknown.
func Scan(dir string) (*Detection, error) {
	d := &Detection{
		Kind:       KindUnknown,
		Frameworks: []Framework{},
		Testing:    []string{},
		Tools:      []string{},
	}

	data, err := os.ReadFile(filepath.Join(dir, ComposerFile))
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ComposerFile, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid %s: not valid JSON", ComposerFile)
	}

	manifest := gjson.ParseBytes(data)
	d.Name = manifest.Get("name").String()

	deps := mergeDeps(manifest.Get("require"), manifest.Get("require-dev"))
	d.PHP = deps["php"]

	for _, fw := range frameworkPackages {
		if constraint, ok := deps[fw.pkg]; ok {
			d.Frameworks = append(d.Frameworks, Framework{Name: fw.name, Version: extractVersion(constraint)})
		}
	}
	for _, tp := range testingPackages {
		if _, ok := deps[tp.pkg]; ok {
			d.Testing = append(d.Testing, tp.name)
		}
	}
	for _, tool := range toolPackages {
		if _, ok := deps[tool.pkg]; ok {
			d.Tools = append(d.Tools, tool.name)
		}
	}
	if !contains(d.Tools, "Sail") && fileExists(dir, "vendor/bin/sail") {
		d.Tools = append(d.Tools, "Sail")
	}

	switch {
	case fileExists(dir, "artisan"):
		d.Kind = KindApplication
	case contains(d.Testing, "Testbench") || manifest.Get("type").String() == "library":
		d.Kind = KindPackage
	}

	return d, nil
}

var versionPattern = regexp.MustCompile(`\d+(\.\d+)*`)

// extractVersion pulls the first version out of a composer constraint:
// "^11.0" gives "11.0", "~10.2|^11" gives "10.2".
func extractVersion(constraint string) string {
	return versionPattern.FindString(constraint)
}

// mergeDeps combines require and require-dev. require wins on conflicts.
func mergeDeps(require, requireDev gjson.Result) map[string]string {
	deps := make(map[string]string)
	requireDev.ForEach(func(key, value gjson.Result) bool {
		deps[key.String()] = value.String()
		return true
	})
	require.ForEach(func(key, value gjson.Result) bool {
		deps[key.String()] = value.String()
		return true
	})
	return deps
}

func fileExists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
	return err == nil && !info.IsDir()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
