package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storekeep/internal/cli/output"
	"github.com/yndnr/storekeep/internal/config"
	"github.com/yndnr/storekeep/internal/infra/buildinfo"
	"github.com/yndnr/storekeep/internal/telemetry/logger"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "storekeep-cli",
		Usage:   "Inspect persisted store records and exercise the persistence lifecycle",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RecordCommand(),
			RunCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
		After:  teardown,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML)",
			EnvVars: []string{"STOREKEEP_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Storage engine override: badger, memory",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Badger data directory override",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level override: debug, info, warn, error",
		},
	}
}

// env is the per-invocation state shared by commands.
type env struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
	out        io.Writer
	formatter  output.Formatter

	backend config.Backend
}

// overrides maps set flags to configuration keys.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("engine") {
		m["storage.engine"] = c.String("engine")
	}
	if c.IsSet("data-dir") {
		m["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	return m
}

func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	path := c.String("config")
	cfg, err := config.Load(path, overrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    c.App.ErrWriter,
		Component: c.App.Name,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = &env{
		configPath: path,
		cfg:        cfg,
		log:        log,
		out:        out,
		formatter:  output.NewFormatter(format, c.Bool("wide")),
	}
	return nil
}

func teardown(c *cli.Context) error {
	e, ok := c.App.Metadata[envKey].(*env)
	if !ok {
		return nil
	}
	return e.close()
}

func getEnv(c *cli.Context) *env {
	return c.App.Metadata[envKey].(*env)
}

// storage opens the configured backing store on first use.
func (e *env) storage() (config.Backend, error) {
	if e.backend != nil {
		return e.backend, nil
	}

	b, err := config.OpenStorage(e.cfg.Storage, e.log.Slog())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	e.backend = b
	return b, nil
}

func (e *env) close() error {
	if e.backend == nil {
		return nil
	}
	err := e.backend.Close()
	e.backend = nil
	return err
}

func (e *env) print(data any) error {
	return e.formatter.Format(e.out, data)
}
