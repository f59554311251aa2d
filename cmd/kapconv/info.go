package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dyuri/kapconv/pkg/kap"
	"github.com/spf13/cobra"
)

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.kap>",
	Short: "Display chart information",
	Long: `Display header metadata and statistics about a chart.

Shows the chart name and number, image size, depth, palettes, projection
details and any header records kapconv does not interpret.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	// Parse chart
	chart, size, err := loadChart(inputPath)
	if err != nil {
		return err
	}

	// Output info
	if jsonOutput {
		return outputInfoJSON(inputPath, chart, size)
	}
	return outputInfoText(inputPath, chart, size, brief)
}

type paletteInfo struct {
	Kind   string `json:"kind"`
	Colors int    `json:"colors"`
}

type chartInfo struct {
	File       string        `json:"file"`
	Size       int64         `json:"size"`
	Version    string        `json:"version"`
	Name       string        `json:"name"`
	Number     string        `json:"number,omitempty"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Depth      int           `json:"depth"`
	Scale      int           `json:"scale,omitempty"`
	Datum      string        `json:"datum,omitempty"`
	Projection string        `json:"projection,omitempty"`
	Palettes   []paletteInfo `json:"palettes"`
	Refs       int           `json:"refs"`
	Border     int           `json:"border_vertices"`
	Comments   []string      `json:"comments,omitempty"`
	Opaque     []string      `json:"opaque_records,omitempty"`
}

func newChartInfo(path string, chart *kap.Chart, size int64) chartInfo {
	h := chart.Header()
	info := chartInfo{
		File:     path,
		Size:     size,
		Version:  h.Version,
		Name:     h.General.Name,
		Number:   h.General.Number,
		Width:    chart.Width(),
		Height:   chart.Height(),
		Depth:    int(chart.Depth()),
		Refs:     len(h.Refs),
		Border:   len(h.Border),
		Comments: h.Comments(),
	}
	if h.Detailed != nil {
		info.Scale = h.Detailed.Scale
		info.Datum = h.Detailed.Datum
		info.Projection = h.Detailed.Projection
	}
	for _, kind := range chart.PaletteKinds() {
		info.Palettes = append(info.Palettes, paletteInfo{
			Kind:   string(kind),
			Colors: chart.Palettes().Len(kind),
		})
	}
	for _, rec := range h.Opaque() {
		if rec.Tag != "" {
			info.Opaque = append(info.Opaque, rec.Tag)
		}
	}
	return info
}

func outputInfoJSON(path string, chart *kap.Chart, size int64) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(newChartInfo(path, chart, size))
}

func outputInfoText(path string, chart *kap.Chart, size int64, brief bool) error {
	info := newChartInfo(path, chart, size)

	if brief {
		fmt.Printf("%s: %q %dx%d depth=%d palettes=%d\n",
			path, info.Name, info.Width, info.Height, info.Depth, len(info.Palettes))
		return nil
	}

	fmt.Printf("Chart File: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("Header:")
	fmt.Printf("  Version:          %s\n", info.Version)
	fmt.Printf("  Name:             %s\n", info.Name)
	if info.Number != "" {
		fmt.Printf("  Number:           %s\n", info.Number)
	}
	fmt.Printf("  Size:             %d x %d pixels\n", info.Width, info.Height)
	fmt.Printf("  Depth:            %d bits (%d colors max)\n", info.Depth, chart.Depth().MaxColors())
	if info.Scale != 0 {
		fmt.Printf("  Scale:            1:%d\n", info.Scale)
	}
	if info.Datum != "" {
		fmt.Printf("  Datum:            %s\n", info.Datum)
	}
	if info.Projection != "" {
		fmt.Printf("  Projection:       %s\n", info.Projection)
	}
	fmt.Println()

	fmt.Println("Palettes:")
	for _, p := range info.Palettes {
		fmt.Printf("  %s:              %d colors\n", p.Kind, p.Colors)
	}
	fmt.Println()

	fmt.Printf("Reference points:   %d\n", info.Refs)
	fmt.Printf("Border vertices:    %d\n", info.Border)
	if len(info.Opaque) > 0 {
		fmt.Printf("Other records:      %s\n", strings.Join(info.Opaque, ", "))
	}
	fmt.Printf("File Size:          %s (%d bytes)\n", formatBytes(size), size)

	if len(info.Comments) > 0 {
		fmt.Println()
		fmt.Println("Comments:")
		for _, c := range info.Comments {
			fmt.Printf("  %s\n", strings.TrimSpace(c))
		}
	}
	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
