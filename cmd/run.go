/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gmaffy/metabin/pipeline"
	"github.com/gmaffy/metabin/utils"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs every configured step, resuming from the run log",
	Long: `Runs coverage extraction, the three coverage plots, every hit group and the
file moves described by the config file. Steps recorded as COMPLETED in
<OutputDir>/metabin.log are skipped unless --force is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		configFile, cErr := cmd.Flags().GetString("config")
		if cErr != nil {
			log.Fatalf("Error getting config flag: %v", cErr)
		}
		if configFile == "" {
			log.Fatalf("A config file is required (-c)")
		}
		force, fErr := cmd.Flags().GetBool("force")
		if fErr != nil {
			log.Fatalf("Error getting force flag: %v", fErr)
		}

		cfg, err := utils.ReadConfig(configFile)
		if err != nil {
			log.Fatalf("Error reading config file: %v", err)
		}
		fmt.Printf("Running with the following parameters:\nConfig file: %s\nBase directory: %s\nHits directory: %s\nOutput directory: %s\n ...\n\n", configFile, cfg.BaseDir, cfg.HitsDir, cfg.OutputDir)
		if err := pipeline.Run(context.Background(), cfg, force); err != nil {
			log.Fatalf("Run failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("force", false, "rerun steps already marked completed")
}
