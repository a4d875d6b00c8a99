package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder"
)

// moduleBuilder is replaced in tests to inject in-memory stores.
var moduleBuilder = func(cfg pagebuilder.Config) (*pagebuilder.Module, error) {
	return pagebuilder.New(cfg)
}

type globalFlags struct {
	configPath string
	mode       string
	root       string
	remoteURL  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "pagebuilder",
		Short:         "Serve, create and export page builder templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "pagebuilder.toml", "Path to the TOML configuration file")
	root.PersistentFlags().StringVar(&flags.mode, "mode", "", "Override the deployment mode (local, remote, auto)")
	root.PersistentFlags().StringVar(&flags.root, "root", "", "Override the local template root")
	root.PersistentFlags().StringVar(&flags.remoteURL, "remote-url", "", "Override the remote object store base URL")

	root.AddCommand(
		newServeCmd(flags),
		newNewCmd(flags),
		newExportCmd(flags),
		newInspectCmd(flags),
	)
	return root
}

// load reads the configuration file and environment, then applies flags
// that were set explicitly.
func (f *globalFlags) load(cmd *cobra.Command) (pagebuilder.Config, error) {
	cfg, err := pagebuilder.LoadConfig(f.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("root") {
		cfg.Storage.Local.Root = f.root
	}
	if changed("remote-url") {
		cfg.Storage.Remote.BaseURL = f.remoteURL
	}
	return cfg, cfg.Validate()
}

func (f *globalFlags) module(cmd *cobra.Command) (*pagebuilder.Module, error) {
	cfg, err := f.load(cmd)
	if err != nil {
		return nil, err
	}
	return moduleBuilder(cfg)
}
