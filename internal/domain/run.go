package domain

import "time"

// RunState tracks orchestration progress through the pipeline.
type RunState string

const (
	StateFetching    RunState = "fetching"
	StateScoring     RunState = "scoring"
	StateSummarizing RunState = "summarizing"
	StatePublishing  RunState = "publishing"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// Stage names a pipeline step for failure attribution.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageScore     Stage = "score"
	StageSummarize Stage = "summarize"
	StagePublish   Stage = "publish"
)

// RunReport is the structured outcome of a single run.
type RunReport struct {
	RunID       string
	Topic       string
	State       RunState
	FailedStage Stage
	Cause       string
	Articles    int
	Scored      int
	Summary     *Summary
	NoNews      bool
	Receipt     *DeliveryReceipt
	StartedAt   time.Time
	FinishedAt  time.Time
}
