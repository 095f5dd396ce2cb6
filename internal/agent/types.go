package agent

import (
	"context"
	"encoding/json"
)

// ToolSpec is the function-tool declaration sent to the model. Parameters
// is a JSON schema object; the same schema validates incoming arguments.
type ToolSpec struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool is one operation the agent may invoke. Execute never fails across
// the boundary: validation, referential and runtime problems all come back
// as descriptive text, because the model is the consumer and decides how to
// react to an error string.
type Tool interface {
	Name() string
	Spec() ToolSpec
	Execute(ctx context.Context, input json.RawMessage) string
}
