package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mj1618/uipilot/internal/control"
	"go.uber.org/zap"
)

// actionSpace names the primitives the vision planner may choose from.
const actionSpace = "click(x,y), double_click(x,y), type(text[,x,y]), press(keys), scroll(dx,dy), wait, finish"

// maxAISteps bounds one AI instruction loop so a never-finishing planner
// (or an unanswered bridge) cannot spin forever.
const maxAISteps = 15

// aiStepDelay paces the loop between steps so the surface can settle and a
// bridged host agent has a window to answer.
const aiStepDelay = 500 * time.Millisecond

// AI executes a natural-language instruction as a bounded plan-act loop:
// screenshot, ask the vision tier for the next action, perform it, repeat
// until the planner reports finished or the step budget runs out.
func (e *Engine) AI(ctx context.Context, instruction string) (*ActionResult, error) {
	start := time.Now()
	res := &ActionResult{UsedVLM: true}
	if e.router == nil {
		res.Status = StatusFailed
		res.Error = "ai instructions require the vision tier (mode is deterministic)"
		return res, nil
	}
	costBefore := e.tracker.Total()
	defer func() {
		res.Duration = time.Since(start)
		res.VLMCost = e.tracker.Total() - costBefore
	}()

	var lastThought string
	for step := 0; step < maxAISteps; step++ {
		if err := ctx.Err(); err != nil {
			res.Status = StatusTimeout
			res.Error = err.Error()
			return res, err
		}

		shot, err := e.adapter.Screenshot(ctx)
		if err != nil {
			res.Status = statusFor(err)
			res.Error = err.Error()
			return res, err
		}

		decision, err := e.router.GetNextAction(ctx, shot, instruction, actionSpace)
		if err != nil {
			res.Status = statusFor(err)
			res.Error = err.Error()
			return res, err
		}
		lastThought = decision.Thought
		e.log.Debug("ai step",
			zap.Int("step", step),
			zap.String("action", decision.ActionType),
			zap.Bool("finished", decision.Finished))

		if decision.Finished {
			res.Status = StatusSuccess
			res.Data = map[string]string{"thought": lastThought}
			return res, nil
		}
		if err := e.performDecision(ctx, decision.ActionType, decision.ActionParams); err != nil {
			res.Status = statusFor(err)
			res.Error = fmt.Sprintf("step %d (%s): %v", step, decision.ActionType, err)
			return res, err
		}
		time.Sleep(aiStepDelay)
	}

	res.Status = StatusFailed
	res.Error = fmt.Sprintf("instruction not finished after %d steps (last thought: %s)", maxAISteps, lastThought)
	return res, nil
}

// performDecision maps one planner action onto a channel primitive.
func (e *Engine) performDecision(ctx context.Context, actionType string, params map[string]string) error {
	switch actionType {
	case "click", "double_click":
		x, y, err := coordParams(params)
		if err != nil {
			return err
		}
		return e.adapter.Click(ctx, control.Coords(x, y), actionType == "double_click")
	case "type":
		text := params["text"]
		if _, hasX := params["x"]; hasX {
			x, y, err := coordParams(params)
			if err != nil {
				return err
			}
			if err := e.adapter.Click(ctx, control.Coords(x, y), false); err != nil {
				return err
			}
			return e.adapter.Type(ctx, control.Coords(x, y), text)
		}
		return e.adapter.Type(ctx, control.CSS(":focus"), text)
	case "press":
		return e.adapter.Press(ctx, params["keys"])
	case "scroll":
		dx, _ := strconv.Atoi(params["dx"])
		dy, _ := strconv.Atoi(params["dy"])
		return e.adapter.Scroll(ctx, nil, dx, dy)
	case "wait":
		// The planner (or an unanswered bridge) asked for time; the loop's
		// own pacing supplies it.
		return nil
	case "finish":
		return nil
	default:
		return fmt.Errorf("planner chose unknown action %q", actionType)
	}
}

func coordParams(params map[string]string) (int, int, error) {
	x, errX := strconv.Atoi(params["x"])
	y, errY := strconv.Atoi(params["y"])
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("planner action missing integer x/y params: %v", params)
	}
	return x, y, nil
}

// AssertVisual asks the vision tier to judge an assertion against the
// current surface. Unparseable replies fail closed inside the router.
func (e *Engine) AssertVisual(ctx context.Context, assertion, expected string) (*ActionResult, error) {
	start := time.Now()
	res := &ActionResult{UsedVLM: true}
	if e.router == nil {
		res.Status = StatusFailed
		res.Error = "visual assertions require the vision tier (mode is deterministic)"
		return res, nil
	}
	costBefore := e.tracker.Total()

	shot, err := e.adapter.Screenshot(ctx)
	if err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res, err
	}
	verdict, err := e.router.AssertVisual(ctx, shot, assertion, expected)
	res.Duration = time.Since(start)
	res.VLMCost = e.tracker.Total() - costBefore
	if err != nil {
		res.Status = statusFor(err)
		res.Error = err.Error()
		return res, err
	}
	res.Data = *verdict
	if verdict.Passed {
		res.Status = StatusSuccess
	} else {
		res.Status = StatusFailed
		res.Error = verdict.Reasoning
	}
	return res, nil
}
