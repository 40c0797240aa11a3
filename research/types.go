package research

import (
	"fmt"
	"strings"
)

// WorkItem is one planned search.
type WorkItem struct {
	Query  string `json:"query" yaml:"query"`
	Reason string `json:"reason" yaml:"reason"`
}

// WorkPlan is the ordered output of the plan stage.
type WorkPlan struct {
	Items []WorkItem `json:"searches" yaml:"searches"`
}

// Total returns the number of planned items.
func (p WorkPlan) Total() int { return len(p.Items) }

// Outcome is the settled result of one WorkItem. Err is nil on success.
type Outcome struct {
	Item    WorkItem
	Payload string
	Err     error
}

// OK reports whether the search produced a payload.
func (o Outcome) OK() bool { return o.Err == nil }

// ExecutionResult is what the Executor returns for one plan.
//
// Outcomes and Payloads are in completion order. len(Outcomes) == Completed
// and Completed <= Total at every point; the executor is done exactly when
// Completed == Total.
type ExecutionResult struct {
	Total     int
	Completed int
	Outcomes  []Outcome
	Payloads  []string
}

// Failed returns the number of dropped items.
func (r ExecutionResult) Failed() int { return r.Completed - len(r.Payloads) }

// WriteRequest is the input of the synthesize stage.
type WriteRequest struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

// Report is the output of the synthesize stage.
type Report struct {
	ShortSummary      string   `json:"short_summary"`
	Markdown          string   `json:"markdown_report"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// String renders the report as markdown.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Markdown))
	b.WriteString("\n")
	if len(r.FollowUpQuestions) > 0 {
		b.WriteString("\n## Follow-up questions\n\n")
		for _, q := range r.FollowUpQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}
