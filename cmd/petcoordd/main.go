// Command petcoordd runs a PET protocol coordinator.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/pet/config"
	"github.com/luxfi/pet/coordinator"
	"github.com/luxfi/pet/metrics"
	"github.com/luxfi/pet/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "petcoordd",
	Short: "PET protocol coordinator",
	Long: `petcoordd runs the coordinator side of a privacy-enhancing
federated-learning protocol: it drives participants through repeated
Sum/Update/Sum2/Unmask rounds and publishes the resulting global model.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "pet-coordinator.toml", "path to the coordinator's TOML configuration file")
	rootCmd.AddCommand(serveCmd(), checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func runCheck() error {
	params, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s is valid\n", configPath)
	return printJSON(params)
}

func runServe() error {
	logger := log.NewLogger("petcoordd")

	params, err := config.Load(configPath)
	if err != nil {
		return err
	}
	initial, err := params.CoordinatorState()
	if err != nil {
		return err
	}

	storage := store.NewPersistent(memdb.New())
	models := store.NewDBModelStorage(memdb.New())
	mtx := metrics.NewMetrics(prometheus.NewRegistry())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := coordinator.New(ctx, coordinator.Config{
		InitialState: initial,
		Storage:      storage,
		Models:       models,
		Metrics:      mtx,
		Log:          logger,
		Workers:      params.WorkerCount,
		HistorySize:  params.HistorySize,
	})
	if err != nil {
		return fmt.Errorf("petcoordd: %w", err)
	}

	logger.Info("coordinator starting", "api_bind_address", params.APIBindAddress, "rpc_bind_address", params.RPCBindAddress)
	return c.Serve(ctx)
}

// printJSON writes v to stdout as indented JSON; the check command
// uses it to print the loaded configuration parameters.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
