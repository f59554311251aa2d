package main

import (
	"fmt"
	"strings"

	"github.com/dyuri/kapconv/pkg/kap"
	"github.com/spf13/cobra"
)

// palette command
var paletteCmd = &cobra.Command{
	Use:   "palette <input.kap>",
	Short: "Print a color palette",
	Long: `Print the entries of one palette of a chart together with the number
of pixels using each index.`,
	Args: cobra.ExactArgs(1),
	RunE: runPalette,
}

func init() {
	paletteCmd.Flags().String("kind", "RGB", "Palette to print: RGB, DAY, DSK, NGT, NGR, GRY, PRC, PRG")
}

func runPalette(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind := kap.PaletteKind(strings.ToUpper(kindFlag))

	// Parse chart
	chart, _, err := loadChart(args[0])
	if err != nil {
		return err
	}

	colors, ok := chart.Palettes().Palette(kind)
	if !ok {
		return fmt.Errorf("palette %s not present (have %v)", kind, chart.PaletteKinds())
	}

	// Count pixels per index
	usage := pixelUsage(chart.Raster())
	fmt.Printf("%s palette, %d colors\n", kind, len(colors))
	for i, c := range colors {
		fmt.Printf("  %3d  #%02x%02x%02x  %3d,%3d,%3d  %d px\n", i+1, c.R, c.G, c.B, c.R, c.G, c.B, usage[i+1])
	}
	if usage[0] > 0 {
		fmt.Printf("  reserved index 0 used by %d px\n", usage[0])
	}
	return nil
}

// pixelUsage counts how many pixels use each index
func pixelUsage(r *kap.Raster) [256]int {
	var counts [256]int
	for _, v := range r.Pix {
		counts[v]++
	}
	return counts
}
