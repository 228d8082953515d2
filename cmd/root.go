// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixstore/pixstore/pkg/pixmgr"
)

var cfgFile string

var pixManager *pixmgr.Manager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pixstore",
	Short: "A metadata-catalogued image object service",
	Long: `pixstore stores image blobs in an object store and searchable metadata in a
record store, and keeps the two consistent across partial failures.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		mgrArgs := map[string]interface{}{}
		if cfgFile != "" {
			mgrArgs["config-file"] = cfgFile
		}

		var err error
		pixManager, err = pixmgr.NewManager(mgrArgs)
		if err != nil {
			fmt.Printf("Failed to initialize pixstore manager: %v\n", err)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if pixManager == nil || pixManager.Logger == nil {
			fmt.Printf("%v\n", err)
		} else {
			pixManager.Logger.Error(err)
		}
		os.Exit(1)
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/pixstore.yaml)")
}
