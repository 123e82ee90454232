package ui

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestStepTrackerCompletesStepsInOrder(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewStepTracker(&buf, false)

	updates := []StepStatus{
		{Status: "connecting"},
		{Status: "connected"},
		{Status: "processing", CurrentStep: "render", Progress: 10},
		{Status: "processing", CurrentStep: "render", Progress: 10}, // duplicate
		{Status: "processing", CurrentStep: "render", Progress: 50},
		{Status: "processing", CurrentStep: "upscale", Progress: 60},
		{Status: "completed", CurrentStep: "upscale", Progress: 100},
	}
	for _, u := range updates {
		tracker.Update(u)
	}

	if got, want := tracker.GetCompletedSteps(), []string{"render", "upscale"}; !reflect.DeepEqual(got, want) {
		t.Errorf("completed steps = %v, want %v", got, want)
	}

	out := buf.String()
	if n := strings.Count(out, "[10%]"); n != 1 {
		t.Errorf("duplicate update printed %d times:\n%s", n, out)
	}
	if !strings.Contains(out, "✓ render") || !strings.Contains(out, "✓ upscale") {
		t.Errorf("missing step completions:\n%s", out)
	}
	if strings.Index(out, "✓ render") > strings.Index(out, "upscale [60%]") {
		t.Errorf("render should complete before upscale starts:\n%s", out)
	}
}

func TestStepTrackerFailureDoesNotCompleteStep(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewStepTracker(&buf, true)

	tracker.Update(StepStatus{Status: "processing", CurrentStep: "render", Message: "Rendering frames"})
	tracker.Update(StepStatus{Status: "failed", CurrentStep: "render"})

	if got := tracker.GetCompletedSteps(); len(got) != 0 {
		t.Errorf("completed steps = %v, want none", got)
	}
	if !strings.Contains(buf.String(), "Rendering frames") {
		t.Errorf("verbose output missing message:\n%s", buf.String())
	}
}

func TestRenderTaskResult(t *testing.T) {
	out := RenderTaskResult("t-1", "completed", json.RawMessage(`{"url":"https://cdn/x.png"}`), "", "3s")
	for _, want := range []string{"t-1", "completed", `"url": "https://cdn/x.png"`, "3s"} {
		if !strings.Contains(out, want) {
			t.Errorf("result missing %q:\n%s", want, out)
		}
	}

	out = RenderTaskResult("t-2", "failed", nil, "Connection lost", "")
	if !strings.Contains(out, "Connection lost") {
		t.Errorf("failed result missing reason:\n%s", out)
	}
}

func TestFormatOutputTruncates(t *testing.T) {
	items := make([]int, 40)
	raw, _ := json.Marshal(items)

	out := formatOutput(raw)
	if !strings.Contains(out, "more lines") {
		t.Errorf("long output not truncated:\n%s", out)
	}
	if formatOutput(json.RawMessage("null")) != "" {
		t.Error("null output should render empty")
	}
}
