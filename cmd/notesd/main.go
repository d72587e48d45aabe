// Command notesd serves orb notes over HTTP for remote note stores.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/pthm-cable/orbfield/config"
	"github.com/pthm-cable/orbfield/server"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.App.HTTP.Port = int(port)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	if err := server.Run(ctx, server.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "notesd",
		Usage:  "HTTP note store for the orb field",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "embedded defaults",
				Sources:     cli.EnvVars("ORBFIELD_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "HTTP port (overrides app.http.port)",
				Sources: cli.EnvVars("ORBFIELD_PORT"),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
