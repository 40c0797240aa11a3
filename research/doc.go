// Package research is the orchestration and streaming engine of the deep
// research pipeline.
//
// A run moves through three stages. The Planner turns a query into a
// WorkPlan, the Executor fans the plan's items out to the Searcher
// concurrently and collects payloads in completion order, and the Writer
// synthesizes the payloads into a Report. Every milestone pushes a
// human-readable event onto the run's ProgressChannel.
//
// Streamer is the entry point. Each call to Stream owns one PipelineRun and
// yields the cumulative progress text, ending with either the report or an
// error notice:
//
//	st := streamer.Stream(ctx, "impact of solid-state batteries on EV range")
//	defer st.Close()
//	for {
//	    text, ok, err := st.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    render(text) // replace, do not append
//	}
//
// Failures of individual searches are contained by the Executor. Planning
// and synthesis failures end the run and are rendered as text; Next only
// returns an error when the consumer's own context is done.
package research
