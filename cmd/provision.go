// Handles the "pixstore provision" command

package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the backing bucket and table",
	Long: `Creates whatever resources the configured provider needs: the S3 bucket and
DynamoDB table for the aws provider, or the object directory for the local
provider. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := pixManager.Provision(context.Background()); err != nil {
			return errors.Wrap(err, "Provision command failed")
		}
		pixManager.Logger.Info("Provisioning complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
