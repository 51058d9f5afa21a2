package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/revolution/boost-copilot/internal/adapter"
	"github.com/revolution/boost-copilot/internal/config"
	"github.com/revolution/boost-copilot/internal/detect"
	"github.com/revolution/boost-copilot/internal/environment"
	"github.com/revolution/boost-copilot/internal/fs"
	"github.com/revolution/boost-copilot/internal/logger"
	"github.com/revolution/boost-copilot/internal/mcp"
	"github.com/revolution/boost-copilot/internal/mcpconfig"
	"github.com/spf13/cobra"
)

var (
	doctorProbe   bool
	doctorTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorProbe, "probe", false, "Start the installed MCP server and list its tools")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 15*time.Second, "Timeout for --probe")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the Copilot CLI installation",
	Long: `Verifies boost.yaml, the guidelines file and the MCP server entry.

With --probe the installed server is started and asked for its tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		rt, err := environment.FromEnv()
		if err != nil {
			return err
		}

		d := doctor{
			w:       cmd.OutOrStdout(),
			root:    root,
			runtime: rt,
			log:     logger.New(cmd.ErrOrStderr(), verbose),
			probe:   doctorProbe,
			timeout: doctorTimeout,
		}
		d.run(cmd.Context())
		return nil
	},
}

type doctor struct {
	w       io.Writer
	root    string
	runtime environment.Context
	log     *logger.Logger
	probe   bool
	timeout time.Duration

	// probeFunc is swapped in tests.
	probeFunc func(ctx context.Context, entry mcpconfig.ServerEntry) (*mcp.Report, error)
}

// run prints every check and reports whether all required checks passed.
func (d doctor) run(ctx context.Context) bool {
	fmt.Fprintln(d.w, "Boost Doctor")
	fmt.Fprintln(d.w, "============")
	fmt.Fprintln(d.w)

	allGood := true

	// Check 1: boost.yaml
	cfg, err := config.Load(d.root)
	switch {
	case err != nil:
		d.printCheck(false, config.ConfigFile+" is valid")
		fmt.Fprintf(d.w, "     %v\n", err)
		d.summary(false, "")
		return false
	case config.Exists(d.root):
		d.printCheck(true, config.ConfigFile+" is valid")
	default:
		d.printOptional("no " + config.ConfigFile + ", using defaults")
	}

	// Check 2: agent
	a, err := newAgent(d.root, cfg, d.runtime, d.log)
	if err != nil {
		d.printCheck(false, "agent is known")
		fmt.Fprintf(d.w, "     %v\n", err)
		d.summary(false, "")
		return false
	}
	d.printCheck(true, fmt.Sprintf("agent: %s", a.DisplayName()))

	// Check 3: guidelines
	if fs.FileExists(filepath.Join(d.root, filepath.FromSlash(a.GuidelinesPath()))) {
		d.printCheck(true, a.GuidelinesPath()+" exists")
	} else {
		d.printCheck(false, a.GuidelinesPath()+" exists")
		fmt.Fprintln(d.w, "     Run 'boost-copilot install' or 'boost-copilot guidelines'")
		allGood = false
	}

	d.checkBoostPackage()

	// Check 4: MCP config and server entry
	inst, ok := a.(adapter.MCPInstaller)
	if !ok {
		d.printOptional(a.DisplayName() + " does not use an MCP config file")
		d.summary(allGood, "")
		return allGood
	}

	entry, ok := d.checkEntry(a, inst, cfg)
	if !ok {
		allGood = false
	}

	if entry != nil {
		d.checkCommand(*entry)
		if d.probe {
			fmt.Fprintln(d.w)
			fmt.Fprintln(d.w, "MCP server:")
			if !d.probeEntry(ctx, *entry) {
				allGood = false
			}
		}
	}

	d.summary(allGood, a.MCPConfigPath())
	return allGood
}

// checkEntry verifies the config file parses and holds the expected entry.
// The installed entry is returned when one exists.
func (d doctor) checkEntry(a adapter.Adapter, inst adapter.MCPInstaller, cfg *config.Config) (*mcpconfig.ServerEntry, bool) {
	configPath := filepath.Join(d.root, filepath.FromSlash(a.MCPConfigPath()))
	if !fs.FileExists(configPath) {
		d.printCheck(false, a.MCPConfigPath()+" exists")
		fmt.Fprintln(d.w, "     Run 'boost-copilot install'")
		return nil, false
	}

	strict := mcpconfig.NewWriter(mcpconfig.WithPolicy(mcpconfig.PolicyStrict))
	if _, err := strict.Read(configPath); err != nil {
		d.printCheck(false, a.MCPConfigPath()+" is valid JSON")
		fmt.Fprintf(d.w, "     %v\n", err)
		if errors.Is(err, mcpconfig.ErrMalformedDocument) {
			fmt.Fprintln(d.w, "     Set parse_policy: repair in boost.yaml to recover it on the next install")
		}
		return nil, false
	}
	d.printCheck(true, a.MCPConfigPath()+" is valid JSON")

	label := fmt.Sprintf("%s.%s is installed", a.MCPConfigKey(), cfg.Server.Key)
	installed, found, err := inst.InstalledEntry(cfg.Server.Key)
	if err != nil {
		d.printCheck(false, label)
		fmt.Fprintf(d.w, "     %v\n", err)
		return nil, false
	}
	if !found {
		d.printCheck(false, label)
		fmt.Fprintln(d.w, "     Run 'boost-copilot install'")
		return nil, false
	}
	d.printCheck(true, label)

	want := inst.ServerEntry(cfg.Server.Command, cfg.Server.Args, cfg.Server.Env)
	if reflect.DeepEqual(normalizeEntry(installed), normalizeEntry(want)) {
		d.printCheck(true, "server entry matches "+config.ConfigFile)
	} else {
		d.printOptional(fmt.Sprintf("server entry differs from %s (installed: %s)", config.ConfigFile, describeEntry(installed)))
		fmt.Fprintln(d.w, "     Run 'boost-copilot install' to update it")
	}

	return &installed, true
}

// checkBoostPackage warns when composer.json does not require laravel/boost,
// which provides the boost:mcp command.
func (d doctor) checkBoostPackage() {
	if !fs.FileExists(filepath.Join(d.root, detect.ComposerFile)) {
		return
	}
	stack, err := detect.Scan(d.root)
	if err != nil {
		d.log.Debug().Err(err).Msg("skipping project scan")
		return
	}
	if stack.HasTool("Boost") {
		d.printCheck(true, "laravel/boost is required in "+detect.ComposerFile)
	} else {
		d.printOptional("laravel/boost not found in " + detect.ComposerFile + " (composer require laravel/boost --dev)")
	}
}

// checkCommand reports whether the entry's command can be found. Missing
// commands are only a warning since the server may run elsewhere.
func (d doctor) checkCommand(entry mcpconfig.ServerEntry) {
	if strings.HasPrefix(entry.Command, "./") || strings.HasPrefix(entry.Command, "../") {
		if fs.FileExists(filepath.Join(d.root, filepath.FromSlash(entry.Command))) {
			d.printCheck(true, fmt.Sprintf("'%s' exists", entry.Command))
		} else {
			d.printOptional(fmt.Sprintf("'%s' not found (run composer install)", entry.Command))
		}
		return
	}

	if _, err := exec.LookPath(entry.Command); err == nil {
		d.printCheck(true, fmt.Sprintf("'%s' command available", entry.Command))
	} else {
		d.printOptional(fmt.Sprintf("'%s' not found on PATH", entry.Command))
	}
}

func (d doctor) probeEntry(ctx context.Context, entry mcpconfig.ServerEntry) bool {
	probe := d.probeFunc
	if probe == nil {
		probe = func(ctx context.Context, entry mcpconfig.ServerEntry) (*mcp.Report, error) {
			return mcp.Probe(ctx, d.root, entry)
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.log.Debug().Str("command", entry.Command).Strs("args", entry.Args).Msg("probing MCP server")

	report, err := probe(ctx, entry)
	if err != nil {
		d.printCheck(false, "server responds")
		fmt.Fprintf(d.w, "     %v\n", err)
		return false
	}

	d.printCheck(true, fmt.Sprintf("%s %s responds (protocol %s)", report.ServerName, report.ServerVersion, report.ProtocolVersion))
	d.printCheck(true, fmt.Sprintf("%d tool(s) available", len(report.Tools)))
	for _, t := range report.Tools {
		fmt.Fprintf(d.w, "       - %s\n", t)
	}
	return true
}

func (d doctor) summary(allGood bool, configPath string) {
	fmt.Fprintln(d.w)
	if !allGood {
		fmt.Fprintln(d.w, "Some issues found. See above for details.")
		return
	}
	fmt.Fprintln(d.w, "Boost is installed for Copilot CLI.")
	if configPath != "" {
		fmt.Fprintln(d.w)
		fmt.Fprintln(d.w, "Start Copilot CLI with:")
		fmt.Fprintf(d.w, "  copilot --additional-mcp-config @%s --continue\n", configPath)
	}
}

func (d doctor) printCheck(ok bool, msg string) {
	if ok {
		fmt.Fprintf(d.w, "  %s %s\n", color.GreenString("[ok]"), msg)
	} else {
		fmt.Fprintf(d.w, "  %s %s\n", color.RedString("[!!]"), msg)
	}
}

func (d doctor) printOptional(msg string) {
	fmt.Fprintf(d.w, "  %s %s\n", color.YellowString("[--]"), msg)
}

// normalizeEntry makes empty and nil collections compare equal.
func normalizeEntry(e mcpconfig.ServerEntry) mcpconfig.ServerEntry {
	if len(e.Args) == 0 {
		e.Args = nil
	}
	if len(e.Env) == 0 {
		e.Env = nil
	}
	if len(e.Tools) == 0 {
		e.Tools = nil
	}
	return e
}

func describeEntry(e mcpconfig.ServerEntry) string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}
