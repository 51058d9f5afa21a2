package mcpconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/revolution/boost-copilot/internal/fs"
	"github.com/revolution/boost-copilot/internal/logger"
)

// Policy decides what happens when an existing config file is not a JSON object.
type Policy int

const (
	// PolicyLenient treats malformed content as an empty document.
	PolicyLenient Policy = iota
	// PolicyStrict fails with ErrMalformedDocument and leaves the file alone.
	PolicyStrict
	// PolicyRepair attempts a JSON repair first and falls back to lenient.
	PolicyRepair
)

var policyNames = map[Policy]string{
	PolicyLenient: "lenient",
	PolicyStrict:  "strict",
	PolicyRepair:  "repair",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a policy name to a Policy. The empty string is lenient.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lenient":
		return PolicyLenient, nil
	case "strict":
		return PolicyStrict, nil
	case "repair":
		return PolicyRepair, nil
	default:
		return PolicyLenient, fmt.Errorf("unknown parse policy %q (valid: lenient, strict, repair)", name)
	}
}

// Writer loads and rewrites config files.
type Writer struct {
	policy Policy
	log    *logger.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithPolicy sets how malformed existing content is handled.
func WithPolicy(p Policy) Option {
	return func(w *Writer) { w.policy = p }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l.With("mcpconfig")
		}
	}
}

// NewWriter returns a Writer using the lenient policy unless told otherwise.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		policy: PolicyLenient,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Install merges value into the file at path under the dotted key path,
// prunes empty arrays across the whole document and rewrites the file.
// Parent directories are created. Other keys are left as they were.
func Install(path, keyPath string, value any) error {
	return NewWriter().Install(path, keyPath, value)
}

// Install merges value into the file at path under the dotted key path.
func (w *Writer) Install(path, keyPath string, value any) error {
	if path == "" {
		return ErrInvalidPath
	}
	segs, err := splitKeyPath(keyPath)
	if err != nil {
		return err
	}
	node, err := toNode(value)
	if err != nil {
		return err
	}

	if err := fs.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	doc, err := w.load(path)
	if err != nil {
		return err
	}

	doc.set(segs, node)
	if err := w.save(path, doc); err != nil {
		return err
	}

	w.log.Debug().Str("path", path).Str("key", keyPath).Msg("config entry installed")
	return nil
}

// Remove deletes the value at the dotted key path. A missing file or key is
// not an error and leaves the file untouched.
func (w *Writer) Remove(path, keyPath string) error {
	if path == "" {
		return ErrInvalidPath
	}
	if _, err := splitKeyPath(keyPath); err != nil {
		return err
	}
	if !fs.FileExists(path) {
		return nil
	}

	doc, err := w.load(path)
	if err != nil {
		return err
	}
	if !doc.Delete(keyPath) {
		w.log.Debug().Str("path", path).Str("key", keyPath).Msg("config entry not present")
		return nil
	}

	if err := w.save(path, doc); err != nil {
		return err
	}

	w.log.Debug().Str("path", path).Str("key", keyPath).Msg("config entry removed")
	return nil
}

// Read loads the document at path using the writer's policy.
// A missing file yields an empty document.
func (w *Writer) Read(path string) (*Document, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	return w.load(path)
}

func (w *Writer) load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, parseErr := ParseDocument(data)
	if parseErr == nil {
		return doc, nil
	}

	if w.policy == PolicyStrict {
		return nil, fmt.Errorf("%s: %w", path, parseErr)
	}

	if w.policy == PolicyRepair {
		if repaired, err := jsonrepair.JSONRepair(string(data)); err == nil {
			if doc, err := ParseDocument([]byte(repaired)); err == nil {
				w.log.Warn().Str("path", path).Msg("repaired malformed config file")
				return doc, nil
			}
		}
	}

	w.log.Warn().Str("path", path).Err(parseErr).Msg("discarding malformed config file")
	return NewDocument(), nil
}

func (w *Writer) save(path string, doc *Document) error {
	doc.PruneEmptyArrays()

	data := doc.Marshal()
	if len(data) == 0 {
		return fmt.Errorf("%w: empty output for %s", ErrSerialization, path)
	}

	return fs.WriteFileAtomic(path, data)
}
