package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-pagebuilder/internal/codec"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		path    string
		out     string
		runtime string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a stored page as generated, human editable Go source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := flags.module(cmd)
			if err != nil {
				return err
			}
			defer module.Close()

			def, _, err := module.Resolve(cmd.Context(), path)
			if err != nil {
				return err
			}
			var opts []codec.SourceOption
			if runtime != "" {
				opts = append(opts, codec.WithRuntimeImport(runtime))
			}
			source, err := codec.NewSourceCodec(opts...).Encode(def)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(source)
				return err
			}
			if err := os.WriteFile(out, source, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", def.Path, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Template path to export, e.g. lv/finansejums")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&runtime, "runtime-import", "", "Import path of the page runtime package")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
