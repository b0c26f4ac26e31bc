package workflowpb

import (
	"reflect"
	"testing"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := jsonCodec{}
	input := &ChainRequest{
		Wf:            &RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &RemoteWorkflow{Token: "wf-2"},
		InputToOutput: &InputToOutputChainRequest{OutputName: "output", InputName: "field"},
	}

	data, err := codec.Marshal(input)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded ChainRequest
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(input, &decoded) {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, input)
	}

	if name := codec.Name(); name != "json" {
		t.Fatalf("Name() = %s, want json", name)
	}
	if Codec().Name() != CodecName {
		t.Fatalf("Codec().Name() = %s, want %s", Codec().Name(), CodecName)
	}
}
