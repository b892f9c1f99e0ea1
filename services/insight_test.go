package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vitalcircle/vitalcircle/ai"
)

func emptyWindow(t *testing.T, days int) []DaySnapshot {
	t.Helper()
	return BuildWindow(day(t, "2024-03-07"), days, nil)
}

func TestSummarizeNoDataSkipsGenerator(t *testing.T) {
	gen := &mockGenerator{response: `{"summary":"unused"}`}
	insight, err := NewInsightAssembler(gen).Summarize(context.Background(), emptyWindow(t, 7), ProgressSummary{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("expected generator not to be called, got %d calls", gen.calls)
	}
	if insight.Summary != NoDataInsight(7).Summary || insight.Error != "" || insight.Praise != nil {
		t.Fatalf("unexpected insight %+v", insight)
	}
	if !strings.Contains(insight.Summary, "last 7 days") {
		t.Fatalf("expected window length in summary, got %q", insight.Summary)
	}
}

func TestSummarizeMedicationOnlyWindowCallsGenerator(t *testing.T) {
	series := emptyWindow(t, 3)
	series[2].MedicationTaken = true
	gen := &mockGenerator{response: `{"summary":"kept taking meds"}`}

	insight, err := NewInsightAssembler(gen).Summarize(context.Background(), series, ProgressSummary{CurrentStreak: 1})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected one generator call, got %d", gen.calls)
	}
	if insight.Summary != "kept taking meds" {
		t.Fatalf("unexpected summary %q", insight.Summary)
	}
	if !strings.Contains(gen.prompts[0], `"medication_taken":true`) {
		t.Fatalf("expected medication in prompt, got %s", gen.prompts[0])
	}
}

func TestSummarizePromptDropsEmptyFields(t *testing.T) {
	series := emptyWindow(t, 3)
	series[1].HeartRate = intPtr(64)
	gen := &mockGenerator{response: `{"summary":"ok"}`}

	if _, err := NewInsightAssembler(gen).Summarize(context.Background(), series, ProgressSummary{MaxStreak: 4}); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	prompt := gen.prompts[0]
	if strings.Contains(prompt, "null") || strings.Contains(prompt, "weight_kg") {
		t.Fatalf("expected unset fields to be dropped, got %s", prompt)
	}
	if strings.Contains(prompt, series[0].Date) {
		t.Fatalf("expected empty days to be dropped, got %s", prompt)
	}
	if !strings.Contains(prompt, `"heart_rate":64`) || !strings.Contains(prompt, `"max_streak":4`) {
		t.Fatalf("expected metric and streak context in prompt, got %s", prompt)
	}
}

func TestSummarizeStripsFencesAndParses(t *testing.T) {
	series := emptyWindow(t, 1)
	series[0].StepsCount = intPtr(10000)
	gen := &mockGenerator{response: "```json\n{\"summary\":\"Great week\",\"praise\":[\"steps\"],\"warnings\":[],\"suggestions\":\"drink water\"}\n```"}

	insight, err := NewInsightAssembler(gen).Summarize(context.Background(), series, ProgressSummary{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if insight.Summary != "Great week" {
		t.Fatalf("unexpected summary %q", insight.Summary)
	}
	if len(insight.Praise) != 1 || insight.Praise[0] != "steps" {
		t.Fatalf("unexpected praise %v", insight.Praise)
	}
	if len(insight.Suggestions) != 1 || insight.Suggestions[0] != "drink water" {
		t.Fatalf("expected string suggestion to become a list, got %v", insight.Suggestions)
	}
}

func TestSummarizeTimeoutIsTyped(t *testing.T) {
	series := emptyWindow(t, 1)
	series[0].MoodRating = intPtr(5)
	gen := &mockGenerator{err: context.DeadlineExceeded}

	_, err := NewInsightAssembler(gen).Summarize(context.Background(), series, ProgressSummary{})
	if !ai.IsKind(err, ai.KindTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if gen.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", gen.calls)
	}
}

func TestSummarizeWithoutGeneratorIsUnconfigured(t *testing.T) {
	series := emptyWindow(t, 1)
	series[0].MoodRating = intPtr(5)

	_, err := NewInsightAssembler(nil).Summarize(context.Background(), series, ProgressSummary{})
	if !ai.IsKind(err, ai.KindUnconfigured) {
		t.Fatalf("expected unconfigured error, got %v", err)
	}
}

func TestReportFoldsErrorIntoPayload(t *testing.T) {
	series := emptyWindow(t, 1)
	series[0].MoodRating = intPtr(5)
	gen := &mockGenerator{err: &ai.Error{Kind: ai.KindRateLimited, Status: 429}}

	insight := NewInsightAssembler(gen).Report(context.Background(), series, ProgressSummary{})
	if insight.Error == "" {
		t.Fatalf("expected error message in payload")
	}
	if insight.Summary != "" || insight.Praise != nil {
		t.Fatalf("expected only the error field, got %+v", insight)
	}
	raw, _ := json.Marshal(insight)
	if string(raw) != `{"error":"`+insight.Error+`"}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestParseInsightFallsBackToText(t *testing.T) {
	cases := map[string]string{
		"plain prose":      "You did well this week.",
		"fenced prose":     "```\nYou did well this week.\n```",
		"unrelated object": `{"foo":"bar"}`,
		"truncated json":   `{"summary": "half`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			insight := ParseInsight(raw)
			want := strings.TrimSpace(raw)
			if insight.Summary != want {
				t.Fatalf("expected summary %q, got %q", want, insight.Summary)
			}
			if insight.Praise != nil || insight.Warnings != nil || insight.Suggestions != nil {
				t.Fatalf("expected no lists, got %+v", insight)
			}
		})
	}
}

func TestParseInsightKeepsBackticksInsideStrings(t *testing.T) {
	answers := []string{
		`{"summary":"Tip: wrap code in ` + "```" + ` blocks","praise":["good sleep"],"warnings":[],"suggestions":["walk"]}`,
		"```json\n" + `{"summary":"Tip: wrap code in ` + "```" + ` blocks","praise":["good sleep"],"warnings":[],"suggestions":["walk"]}` + "\n```",
	}
	for _, raw := range answers {
		insight := ParseInsight(raw)
		if insight.Summary != "Tip: wrap code in ``` blocks" {
			t.Fatalf("expected full summary, got %q", insight.Summary)
		}
		if len(insight.Praise) != 1 || insight.Praise[0] != "good sleep" {
			t.Fatalf("expected praise to survive, got %v", insight.Praise)
		}
		if len(insight.Suggestions) != 1 || insight.Suggestions[0] != "walk" {
			t.Fatalf("expected suggestions to survive, got %v", insight.Suggestions)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "  {\"a\":1}  ", want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "Here you go:\n```\n{\"a\":1}\n```\nthanks", want: `{"a":1}`},
		{in: "```json{\"a\":1}```", want: `{"a":1}`},
		{in: "{\"s\":\"use ``` here\"}", want: "{\"s\":\"use ``` here\"}"},
		{in: "```json\n{\"s\":\"use ``` here\"}\n```", want: "{\"s\":\"use ``` here\"}"},
	}
	for _, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Fatalf("StripCodeFences(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestTextListRejectsObjects(t *testing.T) {
	var l TextList
	if err := json.Unmarshal([]byte(`{"a":1}`), &l); err == nil {
		t.Fatalf("expected error for object input")
	}
	if err := json.Unmarshal([]byte(`""`), &l); err != nil || len(l) != 0 {
		t.Fatalf("expected empty list for empty string, got %v (%v)", l, err)
	}
}
