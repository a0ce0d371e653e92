package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "breakup",
		Short: "Spring breakup load-restriction dates from road temperatures",
		Long: `breakup computes freezing and thawing indices for every point in a
route or segment file and writes the resulting restriction dates.`,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newServeCommand())
	return root
}

func addModeFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "point file layout: route or segment")
	cmd.Flags().BoolP("route", "r", false, "shorthand for --mode route")
	cmd.Flags().BoolP("segment", "s", false, "shorthand for --mode segment")
}

// modeFromFlags requires exactly one of --mode, -r, -s.
func modeFromFlags(cmd *cobra.Command) (domain.PointMode, error) {
	mode, _ := cmd.Flags().GetString("mode")
	route, _ := cmd.Flags().GetBool("route")
	segment, _ := cmd.Flags().GetBool("segment")

	set := 0
	for _, ok := range []bool{mode != "", route, segment} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return "", errors.New("a mode is required: --mode route|segment, -r or -s")
	case set > 1:
		return "", errors.New("--mode, -r and -s are mutually exclusive")
	case route:
		return domain.ModeRoute, nil
	case segment:
		return domain.ModeSegment, nil
	}
	m, err := domain.ParseMode(mode)
	if err != nil {
		return "", fmt.Errorf("--mode: %w", err)
	}
	return m, nil
}
