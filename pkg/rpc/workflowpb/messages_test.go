package workflowpb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRequest_OmitsAbsentLinkage(t *testing.T) {
	req := &ChainRequest{
		Wf:            &RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &RemoteWorkflow{Token: "wf-2"},
	}

	data, err := Codec().Marshal(req)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw["input_to_output"]
	assert.False(t, present, "input_to_output must be absent, got %s", data)
	assert.JSONEq(t, `{"wf":{"token":"wf-1"},"wf_to_chain_with":{"token":"wf-2"}}`, string(data))
}

func TestChainRequest_LinkageFieldNames(t *testing.T) {
	req := &ChainRequest{
		Wf:            &RemoteWorkflow{Token: "wf-1"},
		WfToChainWith: &RemoteWorkflow{Token: "wf-2"},
		InputToOutput: &InputToOutputChainRequest{OutputName: "output", InputName: "field"},
	}

	data, err := Codec().Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"wf": {"token": "wf-1"},
		"wf_to_chain_with": {"token": "wf-2"},
		"input_to_output": {"output_name": "output", "input_name": "field"}
	}`, string(data))
}

func TestGetters_NilSafe(t *testing.T) {
	var req *ChainRequest
	assert.Nil(t, req.GetWf())
	assert.Nil(t, req.GetWfToChainWith())
	assert.Nil(t, req.GetInputToOutput())

	var wf *RemoteWorkflow
	assert.Equal(t, "", wf.GetToken())
	assert.Nil(t, wf.Clone())

	var link *InputToOutputChainRequest
	assert.Equal(t, "", link.GetOutputName())
	assert.Equal(t, "", link.GetInputName())
}

func TestRemoteWorkflow_CloneIsIndependent(t *testing.T) {
	orig := &RemoteWorkflow{Token: "wf-1"}
	clone := orig.Clone()
	clone.Token = "changed"
	assert.Equal(t, "wf-1", orig.Token)
}
