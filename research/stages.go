package research

import "github.com/kbukum/deepresearch/provider"

// StageKind names a remote stage.
type StageKind int

const (
	StagePlan StageKind = iota
	StageSearch
	StageWrite
)

func (k StageKind) String() string {
	switch k {
	case StagePlan:
		return "plan"
	case StageSearch:
		return "search"
	case StageWrite:
		return "write"
	default:
		return "unknown"
	}
}

// The three remote stage contracts. Implementations live in research/agents;
// tests use provider.Func.
type (
	Planner  = provider.RequestResponse[string, WorkPlan]
	Searcher = provider.RequestResponse[WorkItem, string]
	Writer   = provider.RequestResponse[WriteRequest, Report]
)
