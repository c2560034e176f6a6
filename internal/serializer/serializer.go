package serializer

import (
	"errors"
	"fmt"
	"strings"
)

// Codec names accepted by ByName.
const (
	NameJSON  = "json"
	NameYAML  = "yaml"
	NameProto = "proto"
)

var (
	// ErrNotObject is returned when a persisted record does not decode to an object.
	ErrNotObject = errors.New("serializer: record is not an object")

	// ErrUnknownCodec is returned by ByName for an unsupported codec name.
	ErrUnknownCodec = errors.New("serializer: unknown codec")
)

// Serializer encodes a snapshot to text and decodes it back.
type Serializer interface {
	Serialize(snapshot map[string]any) (string, error)
	Deserialize(data string) (map[string]any, error)
}

// ByName returns the codec registered under name. An empty name selects JSON.
func ByName(name string) (Serializer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameJSON:
		return JSON(), nil
	case NameYAML, "yml":
		return YAML(), nil
	case NameProto, "protobuf":
		return Proto(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// asObject narrows a decoded value to a snapshot record.
func asObject(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case nil:
		return nil, ErrNotObject
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
}
