/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gmaffy/metabin/coverage"
	"github.com/gmaffy/metabin/utils"
	"github.com/spf13/cobra"
)

// extractCoverageCmd represents the extractCoverage command
var extractCoverageCmd = &cobra.Command{
	Use:   "extractCoverage",
	Short: "Writes length and coverage tables for every bin directory",
	Long: `Walks the base directory for bin directories (folders whose path contains the marker),
reads the length and coverage of each contig from its FASTA header and writes
<sample>_binned_coverage.txt and <sample>_unbinned_coverage.txt into each bin directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		baseDir, bErr := cmd.Flags().GetString("base_dir")
		if bErr != nil {
			log.Fatalf("Error getting base_dir flag: %v", bErr)
		}
		marker, mErr := cmd.Flags().GetString("marker")
		if mErr != nil {
			log.Fatalf("Error getting marker flag: %v", mErr)
		}
		minLength, lErr := cmd.Flags().GetInt("min_length")
		if lErr != nil {
			log.Fatalf("Error getting min_length flag: %v", lErr)
		}
		threads, tErr := cmd.Flags().GetInt("threads")
		if tErr != nil {
			log.Fatalf("Error getting threads flag: %v", tErr)
		}

		fmt.Printf("Running with the following parameters:\nBase directory: %s\nMarker: %s\nMinimum length: %d\nThreads: %d\n ...\n\n", baseDir, marker, minLength, threads)
		results, err := coverage.ProcessDirectory(context.Background(), coverage.Options{
			BaseDir:   baseDir,
			Marker:    marker,
			MinLength: minLength,
			Threads:   threads,
		})
		if err != nil {
			log.Fatalf("Coverage extraction failed: %v", err)
		}
		for _, res := range results {
			fmt.Printf("%s: %d binned, %d unbinned contigs\n", res.Sample, res.BinnedRecords, res.UnbinnedRecords)
		}
		fmt.Printf("\nProcessed %d bin directories\n", len(results))
	},
}

func init() {
	rootCmd.AddCommand(extractCoverageCmd)

	extractCoverageCmd.Flags().StringP("base_dir", "d", ".", "directory to search for bin directories")
	extractCoverageCmd.Flags().String("marker", utils.DefaultBinMarker, "path segment identifying bin directories")
	extractCoverageCmd.Flags().Int("min_length", utils.DefaultMinLength, "keep contigs longer than this")
	extractCoverageCmd.Flags().IntP("threads", "t", utils.DefaultThreads, "bin directories processed at once")
}
