// Handles the "pixstore image" command. This command exists solely to contain
// catalog subcommands (e.g. upload, list, etc..)

package cmd

import (
	"github.com/spf13/cobra"
)

// imageCmd represents the image command
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Catalog interaction",
	Long:  `Commands for uploading, listing, retrieving, and deleting images.`,
}

func init() {
	rootCmd.AddCommand(imageCmd)
}
