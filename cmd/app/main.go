package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

// Exit codes for batch invocations.
const (
	exitOK       = 0
	exitFailure  = 1
	exitStale    = 2
	exitNoCorpus = 3
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		// No config file and none requested: run on defaults.
		return cfg, cfg.Validate()
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitFailure)
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return cli.Exit(fmt.Sprintf("serve: %v", err), exitFailure)
	}
	return nil
}

func scanAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitFailure)
	}
	if err := internal.RunScan(ctx, cfg); err != nil {
		return cli.Exit(fmt.Sprintf("scan: %v", err), exitFailure)
	}
	return nil
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitFailure)
	}
	query := cmd.Args().First()
	if query == "" {
		return cli.Exit("search: query argument required", exitFailure)
	}
	err = internal.RunSearch(ctx, cfg, query, int(cmd.Int("limit")), cmd.Bool("no-rebuild"))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, internal.ErrStaleDeclined):
		return cli.Exit(fmt.Sprintf("search: %v", err), exitStale)
	case errors.Is(err, internal.ErrNoCorpus):
		return cli.Exit(fmt.Sprintf("search: %v", err), exitNoCorpus)
	default:
		return cli.Exit(fmt.Sprintf("search: %v", err), exitFailure)
	}
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config: %v", err), exitFailure)
	}
	if err := internal.RunMCP(ctx, cfg); err != nil {
		return cli.Exit(fmt.Sprintf("mcp: %v", err), exitFailure)
	}
	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Documentation intelligence engine with metadata healing, health scoring, and intent-aware search",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server with a file watcher",
				Flags:  []cli.Flag{configFlag},
				Action: serveAction,
			},
			{
				Name:   "scan",
				Usage:  "Heal the docs tree, rebuild all artifacts, and print the health report",
				Flags:  []cli.Flag{configFlag},
				Action: scanAction,
			},
			{
				Name:      "search",
				Usage:     "Answer one ranked query and print JSON results",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "no-rebuild",
						Usage: "Fail instead of rebuilding when persisted artifacts are stale",
					},
				},
				Action: searchAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Flags:  []cli.Flag{configFlag},
				Action: mcpAction,
			},
		},
		Action: serveAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			slog.Error("application error", slog.String("error", err.Error()))
			os.Exit(exitErr.ExitCode())
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(exitFailure)
	}
}
