package workflowpb

// RemoteWorkflow references a workflow living in the remote process.
type RemoteWorkflow struct {
	Token string `json:"token"`
}

func (x *RemoteWorkflow) GetToken() string {
	if x == nil {
		return ""
	}
	return x.Token
}

// Clone returns an independent copy; nil stays nil.
func (x *RemoteWorkflow) Clone() *RemoteWorkflow {
	if x == nil {
		return nil
	}
	return &RemoteWorkflow{Token: x.Token}
}

// InputToOutputChainRequest connects OutputName of the receiving workflow to
// InputName of the workflow being chained in.
type InputToOutputChainRequest struct {
	OutputName string `json:"output_name"`
	InputName  string `json:"input_name"`
}

func (x *InputToOutputChainRequest) GetOutputName() string {
	if x == nil {
		return ""
	}
	return x.OutputName
}

func (x *InputToOutputChainRequest) GetInputName() string {
	if x == nil {
		return ""
	}
	return x.InputName
}

// ChainRequest asks the service to splice WfToChainWith into Wf. When
// InputToOutput is nil the service connects same-named pins.
type ChainRequest struct {
	Wf            *RemoteWorkflow            `json:"wf"`
	WfToChainWith *RemoteWorkflow            `json:"wf_to_chain_with"`
	InputToOutput *InputToOutputChainRequest `json:"input_to_output,omitempty"`
}

func (x *ChainRequest) GetWf() *RemoteWorkflow {
	if x == nil {
		return nil
	}
	return x.Wf
}

func (x *ChainRequest) GetWfToChainWith() *RemoteWorkflow {
	if x == nil {
		return nil
	}
	return x.WfToChainWith
}

func (x *ChainRequest) GetInputToOutput() *InputToOutputChainRequest {
	if x == nil {
		return nil
	}
	return x.InputToOutput
}
