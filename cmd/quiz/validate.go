package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/catalog"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [bundle]",
		Short: "Check a content bundle for structural and reference problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Bundle
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd, a, path)
		},
	}
}

func runValidate(cmd *cobra.Command, a *app, path string) error {
	out := cmd.OutOrStdout()

	b, err := catalog.Load(path)
	if err != nil {
		return err
	}
	problems := catalog.Validate(b)
	for _, p := range problems {
		fmt.Fprintf(out, "  %v\n", p)
	}
	if len(problems) > 0 {
		a.log.Warn("bundle invalid", zap.String("bundle", path), zap.Int("problems", len(problems)))
		return fmt.Errorf("%s: %d problem(s)", path, len(problems))
	}

	cat := catalog.Build(b)
	fmt.Fprintf(out, "%s: ok (schema %s, content %s)\n", path, b.SchemaVersion, b.ContentVersion)
	fmt.Fprintf(out, "  axes=%d modules=%d modes=%d safety_tags=%d questions=%d\n",
		len(cat.Axes()), len(cat.Modules()), len(cat.Modes()), len(cat.SafetyTags()), len(cat.Questions()))
	return nil
}
