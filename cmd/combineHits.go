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

// combineHitsCmd represents the combineHits command
var combineHitsCmd = &cobra.Command{
	Use:   "combineHits [files...]",
	Short: "Merges per code table hit reports keeping the lowest e-value per hit",
	Long: `Merges tabular hit reports named <prefix>_ct<N>.tbl. Every row is tagged with
its code table, duplicate hits (same target and alignment coordinates) keep the
lowest e-value, and rows are sorted by target then alignment start.

Either give the files on the command line with -i and -o, or pass a config
file with -c to run every configured group and move.`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile, cErr := cmd.Flags().GetString("config")
		if cErr != nil {
			log.Fatalf("Error getting config flag: %v", cErr)
		}
		inputDir, iErr := cmd.Flags().GetString("input_dir")
		if iErr != nil {
			log.Fatalf("Error getting input_dir flag: %v", iErr)
		}
		output, oErr := cmd.Flags().GetString("output")
		if oErr != nil {
			log.Fatalf("Error getting output flag: %v", oErr)
		}

		if configFile == "" {
			if len(args) == 0 || output == "" {
				log.Fatalf("Either a config file or an output file and at least one hit file are required")
			}
			group := utils.HitGroup{Name: "hits", Output: output, Files: args}
			if _, err := pipeline.CombineGroup(group, inputDir, nil); err != nil {
				log.Fatalf("Combining hits failed: %v", err)
			}
			return
		}

		cfg, err := utils.ReadConfig(configFile)
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		cfg.HitsDir = hitsDir(cfg.HitsDir, inputDir, cmd.Flags().Changed("input_dir"))
		fmt.Printf("Running with the following parameters:\nConfig file: %s\nHits directory: %s\nGroups: %d\n ...\n\n", configFile, cfg.HitsDir, len(cfg.Groups))
		for _, group := range cfg.Groups {
			if _, err := pipeline.CombineGroup(group, cfg.HitsDir, nil); err != nil {
				log.Fatalf("Combining %s hits failed: %v", group.Name, err)
			}
		}
		if len(cfg.Moves) > 0 && cfg.MoveDest != "" {
			if err := pipeline.MoveAndReport(cfg.HitsDir, cfg.Moves, cfg.MoveDest, nil); err != nil {
				log.Fatalf("Moving files failed: %v", err)
			}
		}
	},
}

// hitsDir picks the hit directory: an explicit -i wins over the config.
func hitsDir(configured, flagValue string, flagSet bool) string {
	if flagSet || configured == "" {
		return flagValue
	}
	return configured
}

func init() {
	rootCmd.AddCommand(combineHitsCmd)

	combineHitsCmd.Flags().StringP("input_dir", "i", ".", "directory holding the hit files")
	combineHitsCmd.Flags().StringP("output", "o", "", "combined report path")
}
