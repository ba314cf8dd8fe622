package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"invoicing-backend/logger"
	"invoicing-backend/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the overdue sweep scheduler",
	Example: `  # Serve on the configured PORT
  invoicing serve

  # Serve without the scheduler, e.g. on a secondary replica
  invoicing serve --no-scheduler --print-routes`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-scheduler", false, "Do not schedule the daily overdue sweep")
	serveCmd.Flags().Bool("print-routes", false, "Print every registered route on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	noScheduler, _ := cmd.Flags().GetBool("no-scheduler")
	printRoutes, _ := cmd.Flags().GetBool("print-routes")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	if !noScheduler {
		if err := app.deps.Sweeper.Start(app.cfg.SweepSchedule); err != nil {
			return err
		}
		defer app.deps.Sweeper.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(app.deps)
	if printRoutes {
		for _, route := range r.Routes() {
			fmt.Printf("%-6s %s\n", route.Method, route.Path)
		}
	}

	srv := &http.Server{
		Addr:              ":" + app.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", app.cfg.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
