package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/storekeep/internal/serializer"
)

// RecordCommand returns the record subcommand group.
func RecordCommand() *cli.Command {
	return &cli.Command{
		Name:    "record",
		Aliases: []string{"rec"},
		Usage:   "Persisted record management",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show the persisted record of a store",
				ArgsUsage: "STORE_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the stored string without decoding",
					},
				},
				Action: recordGet,
			},
			{
				Name:      "set",
				Usage:     "Replace the persisted record of a store",
				ArgsUsage: "STORE_ID JSON_OBJECT",
				Action:    recordSet,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete the persisted record of a store",
				ArgsUsage: "STORE_ID",
				Action:    recordDelete,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List persisted records",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Key prefix (default: persist.key_prefix)",
					},
				},
				Action: recordList,
			},
		},
	}
}

// recordView is one decoded record.
type recordView struct {
	Store string         `json:"store" yaml:"store"`
	Key   string         `json:"key" yaml:"key"`
	Value map[string]any `json:"value" yaml:"value"`
}

// recordRow is one row of record list.
type recordRow struct {
	Key  string `json:"key" yaml:"key"`
	Size int    `json:"size" yaml:"size"`
}

func storeArg(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", fmt.Errorf("store ID is required")
	}
	return id, nil
}

func recordGet(c *cli.Context) error {
	e := getEnv(c)
	id, err := storeArg(c)
	if err != nil {
		return err
	}

	key, err := e.cfg.StoreKey(id)
	if err != nil {
		return err
	}
	kv, err := e.storage()
	if err != nil {
		return err
	}

	raw, ok, err := kv.Get(c.Context, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("no record for store %q (key %q)", id, key)
	}

	if c.Bool("raw") {
		_, err := fmt.Fprintln(e.out, raw)
		return err
	}

	ser, err := e.cfg.StoreSerializer(id)
	if err != nil {
		return err
	}
	value, err := ser.Deserialize(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return e.print(recordView{Store: id, Key: key, Value: value})
}

func recordSet(c *cli.Context) error {
	e := getEnv(c)
	id, err := storeArg(c)
	if err != nil {
		return err
	}
	if c.Args().Len() < 2 {
		return fmt.Errorf("record value is required")
	}

	value, err := serializer.JSON().Deserialize(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	key, err := e.cfg.StoreKey(id)
	if err != nil {
		return err
	}
	ser, err := e.cfg.StoreSerializer(id)
	if err != nil {
		return err
	}
	data, err := ser.Serialize(value)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	kv, err := e.storage()
	if err != nil {
		return err
	}
	if err := kv.Set(c.Context, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	e.log.Info("record written", "store", id, "key", key, "bytes", len(data))
	return e.print(recordView{Store: id, Key: key, Value: value})
}

func recordDelete(c *cli.Context) error {
	e := getEnv(c)
	id, err := storeArg(c)
	if err != nil {
		return err
	}

	key, err := e.cfg.StoreKey(id)
	if err != nil {
		return err
	}
	kv, err := e.storage()
	if err != nil {
		return err
	}
	if err := kv.Delete(c.Context, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	_, err = fmt.Fprintf(e.out, "deleted %s\n", key)
	return err
}

func recordList(c *cli.Context) error {
	e := getEnv(c)

	prefix := e.cfg.Persist.KeyPrefix
	if c.IsSet("prefix") {
		prefix = c.String("prefix")
	}

	kv, err := e.storage()
	if err != nil {
		return err
	}
	keys, err := kv.Keys(c.Context, prefix)
	if err != nil {
		return err
	}

	rows := make([]recordRow, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := kv.Get(c.Context, key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}
		rows = append(rows, recordRow{Key: key, Size: len(raw)})
	}

	return e.print(rows)
}
