// Handles the "pixstore image upload" command

package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

var imageUploadCmdConfig struct {
	source      string
	owner       string
	title       string
	description string
	tags        string
	contentType string
}

var imageUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload an image with metadata",
	Long: `Reads the image file, uploads the bytes to the object store, and writes a
catalog record to the metadata store. Prints the created record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := ioutil.ReadFile(imageUploadCmdConfig.source)
		if err != nil {
			return errors.Wrap(err, "Failed to read image file "+imageUploadCmdConfig.source)
		}

		req := &pixstore.UploadRequest{
			OwnerID:     imageUploadCmdConfig.owner,
			Title:       imageUploadCmdConfig.title,
			Description: imageUploadCmdConfig.description,
			Tags:        parseList(imageUploadCmdConfig.tags),
			ContentType: imageUploadCmdConfig.contentType,
			Image:       base64.StdEncoding.EncodeToString(data),
		}

		rec, err := pixManager.Service.Upload(context.Background(), req)
		if err != nil {
			return errors.Wrap(err, "Upload command failed")
		}
		pixManager.Logger.Info("Uploaded image: " + rec.ImageID)

		out, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return errors.Wrap(err, "Failed to print record")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	imageCmd.AddCommand(imageUploadCmd)

	// Define the command line arguments for this subcommand
	imageUploadCmd.Flags().StringVarP(&imageUploadCmdConfig.source, "source", "s", "", "path to the image file")
	imageUploadCmd.Flags().StringVarP(&imageUploadCmdConfig.owner, "owner", "o", "", "owner id of the uploading principal")
	imageUploadCmd.Flags().StringVarP(&imageUploadCmdConfig.title, "title", "t", "", "optional title")
	imageUploadCmd.Flags().StringVarP(&imageUploadCmdConfig.description, "description", "d", "", "optional description")
	imageUploadCmd.Flags().StringVar(&imageUploadCmdConfig.tags, "tags", "", "comma-separated tags, first tag feeds the tag index")
	imageUploadCmd.Flags().StringVarP(&imageUploadCmdConfig.contentType, "content-type", "c", "", "MIME type (default "+pixstore.DefaultContentType+")")
	imageUploadCmd.MarkFlagRequired("source")
	imageUploadCmd.MarkFlagRequired("owner")
}
