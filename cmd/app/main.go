package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/0Janvier/citadelle-library/internal"
	pkgconfig "github.com/0Janvier/citadelle-library/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
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
		Name:   "citadelle-library",
		Usage:  "Unified clause and snippet library for legal document drafting",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:  "mcp",
				Usage: "Start the MCP server on stdin/stdout",
				Flags: []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx, cfg)
				},
			},
			{
				Name:      "export",
				Usage:     "Export the library to a JSON document",
				ArgsUsage: "<file | ->",
				Flags:     []cli.Flag{configFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					path := cmd.Args().First()
					if path == "" {
						path = "-"
					}
					return internal.RunExport(ctx, cfg, path)
				},
			},
			{
				Name:      "import",
				Usage:     "Import an export document into the library",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "merge",
						Usage: "Merge into the existing library instead of replacing it",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("import: file argument is required")
					}
					return internal.RunImport(ctx, cfg, path, cmd.Bool("merge"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
