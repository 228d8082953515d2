// Handles the "pixstore serve" command

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pixstore/pixstore/pkg/api"
)

var serveCmdConfig struct {
	listen string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog HTTP server",
	Long: `Serves the image catalog API: POST /images, GET /images,
GET /images/{image_id}, DELETE /images/{image_id}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		listen := serveCmdConfig.listen
		if listen == "" {
			listen = pixManager.Cfg.GetString("listen")
		}

		server := api.NewServer(pixManager.Service, pixManager.Logger.WithField("module", "api"))
		if err := server.Start(listen); err != nil {
			return errors.Wrap(err, "Failed to start API server")
		}
		server.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveCmdConfig.listen, "listen", "l", "", "listen address, overrides the configured one")
}
