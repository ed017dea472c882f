package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/internal/server"
	"github.com/labelrun/labelrun/internal/telemetry"
	"github.com/labelrun/labelrun/pkg/provider"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "labelrun",
	Short:   "LabelRun - Multi-provider shipping label rate-shopping service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var shipCmd = &cobra.Command{
	Use:   "ship <request.json>",
	Short: "Buy the cheapest label for a shipment request read from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runShip,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shipCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	app.logger.Info("Starting LabelRun",
		zap.Int("port", app.cfg.Port),
		zap.String("version", app.cfg.Version),
		zap.String("credential_backend", app.store.Backend()),
	)

	srv := server.New(server.Config{Port: app.cfg.Port},
		app.registry, app.orchestrator, app.store, app.history,
		telemetry.NewMetrics(), app.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runShip is the one-shot CLI path: same wiring as serve, no HTTP. The
// purchased label is written to stdout as JSON and recorded in history.
func runShip(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}
	var req provider.ShipmentRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}

	result, err := app.orchestrator.GenerateCheapestLabel(ctx, &req)
	if err != nil {
		return err
	}

	if _, err := app.history.Append(ctx, history.Entry{
		Provider:       result.Provider,
		ProviderName:   result.ProviderName,
		Rate:           result.Rate,
		TrackingNumber: result.TrackingNumber,
		LabelURL:       result.LabelURL,
		TrackingURL:    result.TrackingURL,
		From:           req.From,
		To:             req.To,
		Weight:         req.Weight,
	}); err != nil {
		app.logger.Warn("Label purchased but history write failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
