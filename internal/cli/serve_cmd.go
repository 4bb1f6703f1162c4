package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/venuealloc/internal/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(app *App, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the allocation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := v.GetString("LISTEN_ADDR")

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler, _ := api.NewRouter(app.Engine)
			return api.Serve(ctx, ln, handler, app.Logger)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (env VENUEALLOC_LISTEN_ADDR)")
	_ = v.BindPFlag("LISTEN_ADDR", cmd.Flags().Lookup("addr"))

	return cmd
}
