package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	templatescmd "github.com/goliatone/go-pagebuilder/internal/commands/templates"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/templates"
)

func newNewCmd(flags *globalFlags) *cobra.Command {
	var (
		lang       string
		title      string
		parent     string
		components []string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty page whose path is derived from a title",
		Example: `  pagebuilder new --lang lv --title "Par mums"
  pagebuilder new --lang en --parent financing --title "Press Release" --component intro`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := pagedef.PathFromTitle(lang, title, parent)
			if err != nil {
				return err
			}
			module, err := flags.module(cmd)
			if err != nil {
				return err
			}
			defer module.Close()

			reg := module.Container().Registry()
			payload := pagedef.TemplatePayload{
				TemplatePath:    path,
				Content:         pagedef.ContentOverrides{},
				AddedComponents: []pagedef.ComponentInstance{},
			}
			now := time.Now()
			for idx, key := range components {
				if _, ok := reg.Lookup(key); !ok {
					return fmt.Errorf("unknown component %q", key)
				}
				payload.AddedComponents = append(payload.AddedComponents, pagedef.ComponentInstance{
					ID:          pagedef.NewInstanceID(key, now.Add(time.Duration(idx)*time.Millisecond)),
					RegistryKey: key,
					Props:       reg.DefaultProps(key),
				})
			}

			var result templates.WriteResult
			handler := templatescmd.NewCreateTemplateHandler(module.Templates(),
				logging.TemplatesLogger(module.Container().LoggerProvider()))
			if err := handler.Execute(cmd.Context(), templatescmd.CreateTemplateCommand{Payload: payload, Result: &result}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s at %s\n", result.Path, result.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Language code of the page")
	cmd.Flags().StringVar(&title, "title", "", "Page title, slugified into the last path segment")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent section path, e.g. financing/business")
	cmd.Flags().StringSliceVar(&components, "component", nil, "Registry key of a component to add, repeatable")
	_ = cmd.MarkFlagRequired("lang")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
