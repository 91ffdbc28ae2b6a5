package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded before any subcommand runs; --config names an
// explicit file, otherwise the XDG default is used when it exists.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Masonry lays out image grids",
		Long:         `Masonry computes virtualized masonry layouts for large image collections: shortest-column placement, viewport windowing and incremental loading, as a CLI, a terminal viewer and an HTTP API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/masonry/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file into c.Config.
func (c *CLI) loadConfig() error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			c.Logger.Debug("no config directory", "error", err)
			return nil
		}
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("config loaded", "path", path)
	return nil
}
