package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/csvsentry/internal/server"
)

var (
	serveAddr         string
	serveMaxUploadMB  int
	serveShutdownSecs int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (upload, analysis, notification)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		addr := a.cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(a.svc, a.logger, a.metrics, server.Options{
			Timeout:         time.Duration(a.cfg.HTTPTimeoutSec) * time.Second,
			MaxUploadBytes:  int64(serveMaxUploadMB) << 20,
			ShutdownTimeout: time.Duration(serveShutdownSecs) * time.Second,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		a.logger.Info("starting csvsentry",
			zap.String("addr", addr),
			zap.String("storage", a.cfg.StorageBackend),
			zap.String("queue", a.cfg.QueueBackend),
		)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	serveCmd.Flags().IntVar(&serveMaxUploadMB, "max-upload-mb", 32, "maximum upload size in MiB")
	serveCmd.Flags().IntVar(&serveShutdownSecs, "shutdown-timeout", 15, "graceful shutdown timeout in seconds")
}

