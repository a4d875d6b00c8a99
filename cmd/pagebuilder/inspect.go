package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newInspectCmd(flags *globalFlags) *cobra.Command {
	var (
		path string
		raw  bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the stored definition or raw artifact for a template path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			module, err := flags.module(cmd)
			if err != nil {
				return err
			}
			defer module.Close()

			out := cmd.OutOrStdout()
			if raw {
				tmpl, err := module.Templates().LoadRaw(cmd.Context(), path)
				if err != nil {
					return err
				}
				_, err = out.Write(tmpl.Content)
				return err
			}
			data, err := module.Templates().RenderData(cmd.Context(), path)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Template path to inspect")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored artifact instead of decoded JSON")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
