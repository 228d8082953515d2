// Handles the "pixstore image get" command

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var imageGetCmdConfig struct {
	output string
	url    bool
}

var imageGetCmd = &cobra.Command{
	Use:   "get <image_id>",
	Short: "Retrieve a record, its bytes, or a signed URL",
	Long: `Fetches the catalog record for an image id. With --output the blob bytes are
written to the given file; with --url a time-limited signed URL is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imageID := args[0]
		wantBytes := imageGetCmdConfig.output != ""

		res, err := pixManager.Service.Retrieve(context.Background(), imageID, wantBytes, imageGetCmdConfig.url)
		if err != nil {
			return errors.Wrap(err, "Get command failed")
		}

		out, err := json.MarshalIndent(res.Record, "", "  ")
		if err != nil {
			return errors.Wrap(err, "Failed to print record")
		}
		fmt.Println(string(out))

		if wantBytes {
			if err := ioutil.WriteFile(imageGetCmdConfig.output, res.Data, 0644); err != nil {
				return errors.Wrap(err, "Failed to write image to "+imageGetCmdConfig.output)
			}
			pixManager.Logger.Info("Wrote image bytes to: " + imageGetCmdConfig.output)
		}
		if imageGetCmdConfig.url {
			fmt.Println(res.URL)
		}
		return nil
	},
}

func init() {
	imageCmd.AddCommand(imageGetCmd)

	imageGetCmd.Flags().StringVarP(&imageGetCmdConfig.output, "output", "f", "", "write the blob bytes to this file")
	imageGetCmd.Flags().BoolVarP(&imageGetCmdConfig.url, "url", "u", false, "print a time-limited signed URL")
}
