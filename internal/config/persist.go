package config

import (
	"fmt"

	"github.com/yndnr/storekeep/internal/persist"
	"github.com/yndnr/storekeep/internal/serializer"
)

// GlobalOptions maps the persist section to coordinator defaults. Storage
// is left unset; callers pass the opened backend to the coordinator.
func (c *Config) GlobalOptions() (persist.GlobalOptions, error) {
	ser, err := serializer.ByName(c.Persist.Serializer)
	if err != nil {
		return persist.GlobalOptions{}, fmt.Errorf("persist.serializer: %w", err)
	}

	global := persist.GlobalOptions{
		Options: persist.Options{
			Serializer: ser,
			Debounce:   persist.Delay(c.Persist.Debounce),
		},
	}
	if c.Persist.KeyPrefix != "" {
		global.MakeKey = persist.PrefixKey(c.Persist.KeyPrefix)
	}
	return global, nil
}

// StoreOptions returns the per-store options for id. Stores without an
// entry get empty options and inherit everything.
func (c *Config) StoreOptions(id string) (*persist.Options, error) {
	opts := &persist.Options{}

	store, ok := c.Persist.Stores[id]
	if !ok {
		return opts, nil
	}

	opts.Key = store.Key
	if store.Serializer != "" {
		ser, err := serializer.ByName(store.Serializer)
		if err != nil {
			return nil, fmt.Errorf("persist.stores.%s.serializer: %w", id, err)
		}
		opts.Serializer = ser
	}

	d, err := parseDebounce(store.Debounce)
	if err != nil {
		return nil, fmt.Errorf("persist.stores.%s.debounce: %w", id, err)
	}
	opts.Debounce = d

	return opts, nil
}

// StoreKey returns the record key for id under this configuration.
func (c *Config) StoreKey(id string) (string, error) {
	global, err := c.GlobalOptions()
	if err != nil {
		return "", err
	}
	local, err := c.StoreOptions(id)
	if err != nil {
		return "", err
	}
	return persist.Resolve(global, *local, id).Key, nil
}

// StoreSerializer returns the serializer used for id.
func (c *Config) StoreSerializer(id string) (serializer.Serializer, error) {
	global, err := c.GlobalOptions()
	if err != nil {
		return nil, err
	}
	local, err := c.StoreOptions(id)
	if err != nil {
		return nil, err
	}
	return persist.Resolve(global, *local, id).Serializer, nil
}
