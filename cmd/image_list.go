// Handles the "pixstore image list" command

package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

var imageListCmdConfig struct {
	owner string
	tag   string
}

var imageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog records",
	Long: `Lists all records, or filters by owner or by tag. The two filters are
mutually exclusive; tag matching uses the first tag only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := pixManager.Service.List(context.Background(), pixstore.ListFilter{
			OwnerID: imageListCmdConfig.owner,
			Tag:     imageListCmdConfig.tag,
		})
		if err != nil {
			return errors.Wrap(err, "List command failed")
		}

		out, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			return errors.Wrap(err, "Failed to print records")
		}
		fmt.Printf("%d record(s)\n%s\n", len(recs), string(out))
		return nil
	},
}

func init() {
	imageCmd.AddCommand(imageListCmd)

	imageListCmd.Flags().StringVarP(&imageListCmdConfig.owner, "owner", "o", "", "filter by owner id")
	imageListCmd.Flags().StringVarP(&imageListCmdConfig.tag, "tag", "t", "", "filter by tag")
}
