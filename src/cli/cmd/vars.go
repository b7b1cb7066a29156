package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pierworks/stevedore/src/spec"
	"github.com/pierworks/stevedore/src/subst"
)

var (
	varsFile string
	varsSubs []string
)

var varsCmd = &cobra.Command{
	Use:   "vars [workspace]",
	Short: "Show the substitution values a run would use",
	Long: `Show every substitution value a run would see: builtins detected from
the workspace, document defaults, config defaults, and flag overrides,
in ascending precedence.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspace, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		if len(args) > 0 {
			workspace = args[0]
		}

		docPath := varsFile
		if docPath == "" {
			docPath = cfg.Document
		}

		userVals, err := userValues(varsSubs)
		if err != nil {
			return err
		}

		// Document defaults sit under flag and config overrides.
		var docVals map[string]string
		if p, loadErr := spec.Load(docPath); loadErr == nil {
			docVals = p.Substitutions
		}

		builtins := subst.Builtins(cfg.Project, workspace)

		printVarGroup(os.Stdout, "builtin", builtins)
		printVarGroup(os.Stdout, "document", docVals)
		printVarGroup(os.Stdout, "override", userVals)
		return nil
	},
}

func printVarGroup(w *os.File, group string, vals map[string]string) {
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-10s %-16s %s\n", group, name, vals[name])
	}
}

func init() {
	varsCmd.Flags().StringVarP(&varsFile, "file", "f", "", "pipeline document (default from config)")
	varsCmd.Flags().StringArrayVar(&varsSubs, "substitution", nil, "set a substitution variable (_KEY=VALUE, repeatable)")

	rootCmd.AddCommand(varsCmd)
}
