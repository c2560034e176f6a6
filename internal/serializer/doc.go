// Package serializer provides the encode/decode pairs that turn a state
// snapshot into the string stored under a backing-store key, and back.
//
// Codecs:
//
//   - json.go: structured-text JSON codec (default), backed by json-iterator
//   - yaml.go: YAML codec for human-edited records
//   - proto.go: protobuf Struct codec, base64 wrapped
//
// A record must always be read back with the codec that wrote it.
package serializer
