package workflowpb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is the content-subtype used on the wire ("application/grpc+json").
const CodecName = "json"

// jsonCodec serves both grpc-go and connect; the two codec interfaces share a
// method set.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

// Codec returns the codec used by every client and server in this package.
func Codec() encoding.Codec {
	return jsonCodec{}
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
