package serializer

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonCodec struct{}

// JSON returns the default structured-text codec.
//
// Numbers decode as float64, so typed cells convert them on restore.
func JSON() Serializer {
	return jsonCodec{}
}

func (jsonCodec) Serialize(snapshot map[string]any) (string, error) {
	data, err := jsonAPI.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("json: encode: %w", err)
	}
	return string(data), nil
}

func (jsonCodec) Deserialize(data string) (map[string]any, error) {
	if !jsonAPI.Valid([]byte(data)) {
		return nil, fmt.Errorf("json: decode: invalid document")
	}

	var v any
	if err := jsonAPI.UnmarshalFromString(data, &v); err != nil {
		return nil, fmt.Errorf("json: decode: %w", err)
	}
	return asObject(v)
}
