package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphclient/internal/client"
	"graphclient/internal/config"
	"graphclient/internal/logging"
)

// offlineAnnotation marks commands that do not talk to a graph server.
const offlineAnnotation = "offline"

type app struct {
	configPath string
	serverURL  string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "graphctl",
		Short: "Command-line client for a graph server's HTTP API",
		Long: `graphctl creates, queries and deletes vertices and edges on a remote
graph server. Every command prints a JSON result record with the HTTP status
and either the payload or the failure reason.

The server URL comes from --server, the config file, or INDRADB_SERVER.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "graph server base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		a.createVertexCmd(),
		a.createEdgeCmd(),
		a.verticesCmd(),
		a.edgesCmd(),
		a.countEdgesCmd(),
		a.deleteVerticesCmd(),
		a.deleteEdgesCmd(),
		a.runScriptCmd(),
		a.exportCmd(),
		a.mirrorCmd(),
		a.fakeServerCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := config.LoadConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(a.configPath); err != nil {
			return err
		}
	}
	if a.serverURL != "" {
		cfg.ServerURL = a.serverURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	a.logger = logger

	if _, ok := cmd.Annotations[offlineAnnotation]; ok {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.client, err = client.New(cfg.ServerURL, client.WithLogger(logger.Named("client")))
	return err
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	// Sync fails on non-syncable stderr on some platforms; nothing to act on.
	_ = a.logger.Sync()
	return nil
}

// printResult writes the result record as JSON and turns a failed result into
// the command's error.
func printResult[T any](cmd *cobra.Command, res client.Result[T], field string, value any) error {
	out := map[string]any{"status": res.Status}
	if field != "" {
		out[field] = value
	}
	if res.Err != nil {
		out["reason"] = reasonOf(res.Err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if res.Err != nil {
		return res.Err
	}
	return nil
}

func reasonOf(e *client.Error) any {
	r := e.Reason()
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return r
}

func parseQuery(raw string) (any, error) {
	var q any
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, fmt.Errorf("query must be valid JSON: %w", err)
	}
	return q, nil
}
