package drift

// Finding codes
const (
	CodeMissingNode    = "MISSING_NODE"    // regeneration has a node the saved plan lacks
	CodeUnexpectedNode = "UNEXPECTED_NODE" // saved plan has a node regeneration lacks
	CodeNodeChanged    = "NODE_CHANGED"    // same ID, different content
	CodeOrderChanged   = "ORDER_CHANGED"   // same children, different order
)

// Severity levels
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Finding represents one difference between a saved plan and its regeneration
type Finding struct {
	Code     string   `json:"code"`
	NodeID   string   `json:"node_id"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	Fields   []string `json:"fields,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Report represents a complete drift check of one plan file
type Report struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Diff     string    `json:"diff,omitempty"`
	Summary  Summary   `json:"summary"`
}

// Summary provides aggregate statistics for a drift report
type Summary struct {
	TotalFindings int `json:"total_findings"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	Info          int `json:"info"`
}
