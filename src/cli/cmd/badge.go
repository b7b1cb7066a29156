package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pierworks/stevedore/src/badge"
)

var (
	badgeStatus string
	badgeOut    string
)

var badgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Generate a status badge SVG",
	Long: `Generate a shields-style status badge. Runs also write one
automatically when badge generation is enabled in the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := badgeEngine()
		if err != nil {
			return err
		}

		svg := eng.Generate(badge.Badge{
			Label: cfg.Badge.Label,
			Value: badge.StatusValue(badgeStatus),
			Color: badge.StatusColor(badgeStatus),
		})

		out := badgeOut
		if out == "" {
			out = cfg.Badge.Output
		}
		if out == "-" {
			fmt.Print(svg)
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("creating badge dir: %w", err)
		}
		if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
			return fmt.Errorf("writing badge: %w", err)
		}
		fmt.Printf("wrote %s\n", out)
		return nil
	},
}

func init() {
	badgeCmd.Flags().StringVar(&badgeStatus, "status", "success", "badge status (success, failed, warning)")
	badgeCmd.Flags().StringVarP(&badgeOut, "output", "o", "", "output path, - for stdout (default from config)")

	rootCmd.AddCommand(badgeCmd)
}
