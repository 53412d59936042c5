/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/metabin/pipeline"
	"github.com/gmaffy/metabin/utils"
	"github.com/spf13/cobra"
)

// plotCoverageCmd represents the plotCoverage command
var plotCoverageCmd = &cobra.Command{
	Use:   "plotCoverage",
	Short: "Plots binned against unbinned contig coverage",
	Long: `Aggregates the coverage tables written by extractCoverage and draws one of:
  scatter    length against coverage
  joint      scatter with marginal histograms
  ridgeline  coverage distribution per table`,
	Run: func(cmd *cobra.Command, args []string) {
		baseDir, bErr := cmd.Flags().GetString("base_dir")
		if bErr != nil {
			log.Fatalf("Error getting base_dir flag: %v", bErr)
		}
		kind, kErr := cmd.Flags().GetString("kind")
		if kErr != nil {
			log.Fatalf("Error getting kind flag: %v", kErr)
		}
		output, oErr := cmd.Flags().GetString("output")
		if oErr != nil {
			log.Fatalf("Error getting output flag: %v", oErr)
		}
		marker, mErr := cmd.Flags().GetString("marker")
		if mErr != nil {
			log.Fatalf("Error getting marker flag: %v", mErr)
		}
		minLength, lErr := cmd.Flags().GetInt("min_length")
		if lErr != nil {
			log.Fatalf("Error getting min_length flag: %v", lErr)
		}
		html, hErr := cmd.Flags().GetBool("html")
		if hErr != nil {
			log.Fatalf("Error getting html flag: %v", hErr)
		}
		maxPoints, pErr := cmd.Flags().GetInt("max_points")
		if pErr != nil {
			log.Fatalf("Error getting max_points flag: %v", pErr)
		}

		fmt.Printf("Running with the following parameters:\nBase directory: %s\nPlot: %s\nOutput: %s\n ...\n\n", baseDir, kind, output)
		err := pipeline.PlotCoverage(pipeline.PlotOptions{
			BaseDir:   baseDir,
			Marker:    marker,
			MinLength: minLength,
			Kind:      kind,
			Output:    output,
			HTML:      html,
			MaxPoints: maxPoints,
		})
		if err != nil {
			log.Fatalf("Plotting failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(plotCoverageCmd)

	plotCoverageCmd.Flags().StringP("base_dir", "d", ".", "directory holding the coverage tables")
	plotCoverageCmd.Flags().StringP("kind", "k", pipeline.KindScatter, "scatter, joint or ridgeline")
	plotCoverageCmd.Flags().StringP("output", "o", "", "output file, the extension picks the format (default depends on kind)")
	plotCoverageCmd.Flags().String("marker", utils.DefaultBinMarker, "path segment identifying bin directories")
	plotCoverageCmd.Flags().Int("min_length", utils.DefaultMinLength, "drop contigs shorter than this")
	plotCoverageCmd.Flags().Bool("html", false, "also write an interactive HTML chart")
	plotCoverageCmd.Flags().Int("max_points", utils.DefaultMaxPoints, "points per series in HTML charts")
}
