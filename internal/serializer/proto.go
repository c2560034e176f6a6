package serializer

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type protoCodec struct{}

// Proto returns a codec that stores records as a base64 encoded
// google.protobuf.Struct. Snapshot values must be JSON shaped
// (nil, bool, numbers, string, []any, map[string]any).
func Proto() Serializer {
	return protoCodec{}
}

func (protoCodec) Serialize(snapshot map[string]any) (string, error) {
	s, err := structpb.NewStruct(snapshot)
	if err != nil {
		return "", fmt.Errorf("proto: encode: %w", err)
	}

	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("proto: encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (protoCodec) Deserialize(data string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("proto: decode: %w", err)
	}

	var s structpb.Struct
	if err := proto.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("proto: decode: %w", err)
	}
	return s.AsMap(), nil
}
