package cmd

import (
	"fmt"
	"io"

	"github.com/revolution/boost-copilot/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect boost.yaml",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints boost.yaml merged over the defaults. When the project has no
boost.yaml the defaults are printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		return runConfigShow(cmd.OutOrStdout(), root)
	},
}

func runConfigShow(w io.Writer, root string) error {
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if !config.Exists(root) {
		fmt.Fprintf(w, "# no %s, showing defaults\n", config.ConfigFile)
	}
	_, err = w.Write(data)
	return err
}
