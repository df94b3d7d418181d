package pb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype the service messages are sent with.
const CodecName = "json"

// jsonCodec marshals service messages as JSON.
type jsonCodec struct{}

func init() { //nolint:gochecknoinits // Codecs must be registered before any connection is made.
	encoding.RegisterCodec(jsonCodec{})
}

// Marshal encodes v as JSON.
func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}

	return data, nil
}

// Unmarshal decodes JSON data into v.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}

	return nil
}

// Name returns the codec name used in the content-subtype.
func (jsonCodec) Name() string {
	return CodecName
}
