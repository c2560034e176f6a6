package serializer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

// YAML returns a codec that stores records as YAML documents.
func YAML() Serializer {
	return yamlCodec{}
}

func (yamlCodec) Serialize(snapshot map[string]any) (string, error) {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("yaml: encode: %w", err)
	}
	return string(data), nil
}

func (yamlCodec) Deserialize(data string) (map[string]any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("yaml: decode: %w", err)
	}
	return asObject(v)
}
