package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/storekeep/internal/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the merged configuration with secrets masked",
				Action: configShow,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	e := getEnv(c)
	return e.print(configView(config.Sanitize(e.cfg)))
}

// configView flattens the configuration for display.
func configView(cfg *config.Config) map[string]any {
	view := map[string]any{
		"log.level":                  cfg.Log.Level,
		"log.format":                 cfg.Log.Format,
		"storage.engine":             cfg.Storage.Engine,
		"storage.data_dir":           cfg.Storage.DataDir,
		"storage.badger.gc_interval": cfg.Storage.Badger.GCInterval,
		"storage.badger.sync_writes": cfg.Storage.Badger.SyncWrites,
		"storage.badger.in_memory":   cfg.Storage.Badger.InMemory,
		"persist.key_prefix":         cfg.Persist.KeyPrefix,
		"persist.serializer":         cfg.Persist.Serializer,
		"persist.debounce":           cfg.Persist.Debounce.String(),
		"metrics.enabled":            cfg.Metrics.Enabled,
		"metrics.addr":               cfg.Metrics.Addr,
	}
	if cfg.Metrics.BearerToken != "" {
		view["metrics.bearer_token"] = cfg.Metrics.BearerToken
	}
	for id, s := range cfg.Persist.Stores {
		prefix := "persist.stores." + id + "."
		if s.Key != "" {
			view[prefix+"key"] = s.Key
		}
		if s.Serializer != "" {
			view[prefix+"serializer"] = s.Serializer
		}
		if s.Debounce != "" {
			view[prefix+"debounce"] = s.Debounce
		}
	}
	return view
}
