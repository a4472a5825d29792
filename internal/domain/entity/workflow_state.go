package entity

// WorkflowState represents a row of the process-scoped workflow state
// catalog. The set of states is open: new states are added operationally
// by inserting enabled rows for a process.
type WorkflowState struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Abbrev      string `json:"abbrev"`
	Process     string `json:"process"`
	Enabled     bool   `json:"enabled"`
}
