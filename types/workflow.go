package types

// WorkflowStep is a single planned or executed interaction descriptor.
// It is used both to plan an action and to narrate history afterwards.
type WorkflowStep struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
	Expect string `json:"expect,omitempty"`
}

// WorkflowResult records the verdict of one scripted interaction sequence.
// A workflow with zero steps is still recordable ("no targets found").
type WorkflowResult struct {
	Name   string         `json:"name"`
	Steps  []WorkflowStep `json:"steps"`
	Passed bool           `json:"passed"`
	Error  string         `json:"error,omitempty"`
}
