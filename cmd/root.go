/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metabin",
	Short: "A toolkit for metagenomic bin coverage and hit table post-processing",
	Long: `A toolkit for post-processing metagenomic binning and annotation output:
1.	Coverage extraction from assembler contig headers (per bin directory)
2.	Coverage plots: scatter, joint and ridgeline (static and HTML)
3.	Merging of per code table hit reports (lowest e-value per hit)
4.	Relocation of result files
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file ")
}
