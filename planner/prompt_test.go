package planner

import (
	"strings"
	"testing"
)

func TestRenderDecisionPromptSubstitutesFields(t *testing.T) {
	got, err := RenderDecisionPrompt(PromptFields{
		Objective:    "find the nearest obstacle",
		Context:      "just started",
		History:      "=== Iteration 1 ===\nReasoning: looked around\n",
		Capabilities: "- **move**: drives the car",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, fragment := range []string{
		"ORIGINAL OBJECTIVE: find the nearest obstacle",
		"just started",
		"=== Iteration 1 ===",
		"- **move**: drives the car",
		"132.7cm",
		"570ms",
		`"tool_calls"`,
		`"should_continue"`,
		`"objective_complete"`,
		`"next_context"`,
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("expected prompt to contain %q", fragment)
		}
	}
}

func TestRenderDecisionPromptEmptyHistory(t *testing.T) {
	got, err := RenderDecisionPrompt(PromptFields{Objective: "explore"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "(no actions executed yet)") {
		t.Error("expected placeholder for empty history")
	}
}
