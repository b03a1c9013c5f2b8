package vision

import "fmt"

// findElementSystem is the fixed system prompt for visual element location.
const findElementSystem = `You are a precise UI element locator. You are shown one screenshot of a desktop application and a description of a target element. Respond with STRICT JSON only, no prose, matching:
{"coordinates": [x, y], "confidence": 0.0-1.0, "reasoning": "why", "notFound": false, "alternative": "closest match if notFound"}
Coordinates are pixel positions of the element's center in the screenshot. If the element is not present set "notFound": true, "confidence": 0 and omit "coordinates".`

// nextActionSystem is the fixed system prompt for step planning.
const nextActionSystem = `You are a UI automation planner. You are shown one screenshot of a desktop application, an instruction, and the allowed action space. Decide the single next action. Respond with STRICT JSON only, matching:
{"actionType": "<one of the action space>", "actionParams": {}, "thought": "why this action", "reflection": "optional note on the last step", "finished": false}
Set "finished": true only when the instruction is fully satisfied.`

// assertVisualSystem is the fixed system prompt for visual assertions.
const assertVisualSystem = `You are a meticulous UI test oracle. You are shown one screenshot of a desktop application and an assertion about it. Respond with STRICT JSON only, matching:
{"passed": true, "reasoning": "evidence", "actual": "what the screenshot actually shows", "suggestions": ["optional fixes"]}`

func findElementUser(description, context string) string {
	msg := fmt.Sprintf("Locate this element: %s", description)
	if context != "" {
		msg += fmt.Sprintf("\nContext: %s", context)
	}
	return msg
}

func nextActionUser(instruction, actionSpace string) string {
	return fmt.Sprintf("Instruction: %s\nAction space: %s\nWhat is the single next action?", instruction, actionSpace)
}

func assertVisualUser(assertion, expected string) string {
	msg := fmt.Sprintf("Assert: %s", assertion)
	if expected != "" {
		msg += fmt.Sprintf("\nExpected: %s", expected)
	}
	return msg
}
