// Package environment describes the runtime the adapter is running in.
//
// A Context is computed once at startup by FromEnv and passed down
// explicitly. Nothing in this package keeps process-wide state.
package environment

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Platform identifies the operating system family used to pick detection probes.
type Platform string

const (
	Darwin  Platform = "darwin"
	Linux   Platform = "linux"
	Windows Platform = "windows"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{Darwin, Linux, Windows}

// PlatformNames joins Platforms for help and error text.
func PlatformNames() string {
	names := make([]string, len(Platforms))
	for i, p := range Platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// ParsePlatform maps a GOOS-style name to a Platform.
// Unknown unix-like systems map to Linux.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "darwin", "macos", "mac":
		return Darwin, nil
	case "windows", "win":
		return Windows, nil
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		return Linux, nil
	case "":
		return "", fmt.Errorf("empty platform name")
	default:
		return "", fmt.Errorf("unknown platform %q (valid: %s)", name, PlatformNames())
	}
}

// Context carries the facts about the current run that change adapter behaviour.
type Context struct {
	// PackageDev is set when running inside a package-development sandbox
	// (Orchestra Testbench) instead of a full application.
	PackageDev bool
	// WSL is set when running inside the Windows Subsystem for Linux.
	WSL bool
	// Platform is the host operating system family.
	Platform Platform
}

// DetectionPlatform returns the platform whose probe strings apply.
// Inside WSL the Linux probes are used whatever the reported platform is.
func (c Context) DetectionPlatform() Platform {
	if c.WSL {
		return Linux
	}
	if c.Platform == "" {
		return current()
	}
	return c.Platform
}

// vars is the raw view of the process environment.
type vars struct {
	PackageDev    bool   `env:"BOOST_PACKAGE_DEV"`
	TestbenchCore string `env:"TESTBENCH_CORE"`
	WSL           bool   `env:"BOOST_WSL"`
	WSLDistro     string `env:"WSL_DISTRO_NAME"`
	WSLInterop    string `env:"WSL_INTEROP"`
	Platform      string `env:"BOOST_PLATFORM"`
}

// FromEnv builds a Context from the process environment.
func FromEnv() (Context, error) {
	return parse(env.Options{})
}

// FromMap builds a Context from an explicit variable set instead of the
// process environment.
func FromMap(m map[string]string) (Context, error) {
	return parse(env.Options{Environment: m})
}

func parse(opts env.Options) (Context, error) {
	var v vars
	if err := env.ParseWithOptions(&v, opts); err != nil {
		return Context{}, fmt.Errorf("error reading environment: %w", err)
	}

	ctx := Context{
		PackageDev: v.PackageDev || v.TestbenchCore != "",
		WSL:        v.WSL || v.WSLDistro != "" || v.WSLInterop != "",
		Platform:   current(),
	}

	if v.Platform != "" {
		p, err := ParsePlatform(v.Platform)
		if err != nil {
			return Context{}, fmt.Errorf("invalid BOOST_PLATFORM: %w", err)
		}
		ctx.Platform = p
	}

	return ctx, nil
}

func current() Platform {
	p, err := ParsePlatform(runtime.GOOS)
	if err != nil {
		return Linux
	}
	return p
}
