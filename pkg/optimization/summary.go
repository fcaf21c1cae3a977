// Package optimization provides shared data structures for solver results.
package optimization

// Summary captures the result of a single target-seeking solve.
type Summary struct {
	Scope           string   `json:"scope"`
	TargetName      string   `json:"targetName"`
	Field           string   `json:"field"`
	Metric          string   `json:"metric"`
	Original        *float64 `json:"original,omitempty"`
	Value           float64  `json:"value"`
	Target          float64  `json:"target"`
	Achieved        *float64 `json:"achieved,omitempty"`
	Gap             *float64 `json:"gap,omitempty"`
	Iterations      int      `json:"iterations"`
	Converged       bool     `json:"converged"`
	Notes           []string `json:"notes,omitempty"`
	OriginalDisplay string   `json:"originalDisplay,omitempty"`
	ValueDisplay    string   `json:"valueDisplay,omitempty"`
}
