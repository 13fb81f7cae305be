package service

import (
	"github.com/goccy/go-json"
)

// jsonCodec serializes plain Go message structs for Connect.
// It replaces Connect's protobuf-JSON codec under the same "json" name, so
// the wire content type stays application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
