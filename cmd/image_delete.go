// Handles the "pixstore image delete" command

package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var imageDeleteCmd = &cobra.Command{
	Use:   "delete <image_id>",
	Short: "Delete an image and its record",
	Long: `Removes the blob from the object store and the record from the metadata
store. Fails with NotFound if the id is unknown; success means both deletions
committed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageID := args[0]
		if err := pixManager.Service.Delete(context.Background(), imageID); err != nil {
			return errors.Wrap(err, "Delete command failed")
		}
		pixManager.Logger.Info("Deleted image: " + imageID)
		return nil
	},
}

func init() {
	imageCmd.AddCommand(imageDeleteCmd)
}
