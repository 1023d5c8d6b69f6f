package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/graph"
)

// asyncOutputBuffer sizes the AsyncStream output channel so slow consumers
// do not stall the graph immediately.
const asyncOutputBuffer = 16

// runState holds everything a single run needs: its private memory handle,
// the graph inputs derived from the caller arguments, the step budget
// resolved for this run and the graph to execute.
type runState struct {
	memory *core.RunMemory
	inputs graph.Inputs
	limit  int
	agent  graph.Graph
}

// startRun prepares a run: fresh memory, inputs from the input builder, a
// freshly resolved step budget and a compiled graph. The graph is only
// force-built when none exists yet; tool identity changes between runs are
// picked up through explicit EnsureAgent calls.
func (p *Pipeline) startRun(args map[string]any) (*runState, error) {
	if p.inputBuilder == nil {
		return nil, fmt.Errorf("pipeline %q: no input builder configured", p.name)
	}

	memory := core.NewRunMemory()
	inputs, err := p.inputBuilder(memory, args)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: build run inputs: %w", p.name, err)
	}
	if inputs == nil {
		inputs = graph.Inputs{}
	}
	if _, ok := inputs["memory"]; !ok {
		inputs["memory"] = memory
	}

	p.mu.Lock()
	agent := p.agent
	p.mu.Unlock()
	if agent == nil {
		agent, err = p.EnsureAgent(EnsureOptions{Force: true})
		if err != nil {
			return nil, err
		}
	}

	return &runState{
		memory: memory,
		inputs: inputs,
		limit:  resolveStepLimit(p.stepLimitSource(), p.logger),
		agent:  agent,
	}, nil
}

// Invoke runs the agent to completion and returns a single final output.
// Step budget exhaustion is not an error: the run is recovered through the
// wrap-up call and reported through output metadata.
func (p *Pipeline) Invoke(ctx context.Context, args map[string]any) (*core.PipelineOutput, error) {
	run, err := p.startRun(args)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("pipeline.invoke", "pipeline", p.name, "step_limit", run.limit)
	raw, err := run.agent.Invoke(ctx, run.inputs, graph.RunOptions{StepLimit: run.limit})
	if err != nil {
		var limitErr *graph.StepLimitError
		if errors.As(err, &limitErr) {
			p.logger.Warn("pipeline.step_limit_reached",
				"pipeline", p.name, "limit", limitErr.Limit)
			return p.recoverStepLimit(ctx, run, limitErr, nil, false), nil
		}
		return nil, fmt.Errorf("pipeline %q: invoke: %w", p.name, err)
	}

	return composeOutput(run.memory, ExtractMessages(raw), p.metadataHook(raw), true), nil
}

// Stream runs the agent and yields an intermediate output for every node
// update that carries messages, followed by exactly one final output. On
// budget exhaustion the final output is the recovered wrap-up; any other
// error ends the sequence with that error.
func (p *Pipeline) Stream(ctx context.Context, args map[string]any) iter.Seq2[*core.PipelineOutput, error] {
	return func(yield func(*core.PipelineOutput, error) bool) {
		run, err := p.startRun(args)
		if err != nil {
			yield(nil, err)
			return
		}

		p.logger.Debug("pipeline.stream", "pipeline", p.name, "step_limit", run.limit)
		var latest []core.Message
		for event, err := range run.agent.Stream(ctx, run.inputs, graph.RunOptions{StepLimit: run.limit}) {
			if err != nil {
				var limitErr *graph.StepLimitError
				if errors.As(err, &limitErr) {
					p.logger.Warn("pipeline.step_limit_reached",
						"pipeline", p.name, "limit", limitErr.Limit)
					yield(p.recoverStepLimit(ctx, run, limitErr, latest, false), nil)
					return
				}
				yield(nil, fmt.Errorf("pipeline %q: stream: %w", p.name, err))
				return
			}

			messages := ExtractMessages(event)
			if len(messages) == 0 {
				continue
			}
			latest = messages
			if !yield(composeOutput(run.memory, messages, nil, false), nil) {
				return
			}
		}

		yield(composeOutput(run.memory, latest, nil, true), nil)
	}
}

// AsyncStream runs the agent cooperatively and delivers outputs over a
// channel. Intermediate outputs are only sent when the newest message has
// text content; updates without text are tracked silently so the final
// output still reflects the full trace. Both channels are closed when the
// run ends; the error channel carries at most one error and stays empty on
// success, including recovered budget exhaustion.
func (p *Pipeline) AsyncStream(ctx context.Context, args map[string]any) (<-chan *core.PipelineOutput, <-chan error) {
	outCh := make(chan *core.PipelineOutput, asyncOutputBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		run, err := p.startRun(args)
		if err != nil {
			errCh <- err
			return
		}

		p.logger.Debug("pipeline.astream", "pipeline", p.name, "step_limit", run.limit)
		events, graphErrs := run.agent.AsyncStream(ctx, run.inputs, graph.RunOptions{StepLimit: run.limit})

		send := func(out *core.PipelineOutput) bool {
			select {
			case outCh <- out:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var latest []core.Message
		for event := range events {
			messages := ExtractMessages(event)
			if len(messages) == 0 {
				continue
			}
			latest = messages
			if messages[len(messages)-1].Text() == "" {
				continue
			}
			if !send(composeOutput(run.memory, messages, nil, false)) {
				return
			}
		}

		if err, ok := <-graphErrs; ok && err != nil {
			var limitErr *graph.StepLimitError
			if errors.As(err, &limitErr) {
				p.logger.Warn("pipeline.step_limit_reached",
					"pipeline", p.name, "limit", limitErr.Limit)
				send(p.recoverStepLimit(ctx, run, limitErr, latest, true))
				return
			}
			errCh <- fmt.Errorf("pipeline %q: astream: %w", p.name, err)
			return
		}

		send(composeOutput(run.memory, latest, nil, true))
	}()

	return outCh, errCh
}
