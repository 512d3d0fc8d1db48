package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spigell/nexaforge/internal/interview"
)

func TestPrintTurnsSkipsUserTurns(t *testing.T) {
	turns := []interview.Turn{
		{Speaker: interview.Bot, Content: "Hello"},
		{Speaker: interview.Bot, Content: "Why Go?", Context: "warm-up"},
		{Speaker: interview.User, Content: "Goroutines."},
		{Speaker: interview.Bot, Content: "Score: 8/10. Solid.", Evaluation: true},
	}

	var buf bytes.Buffer
	printed := printTurns(&buf, turns, 1)
	if printed != len(turns) {
		t.Fatalf("expected %d printed, got %d", len(turns), printed)
	}

	out := buf.String()
	if strings.Contains(out, "Hello") || strings.Contains(out, "Goroutines.") {
		t.Fatalf("unexpected output: %q", out)
	}
	for _, want := range []string{"[interviewer] Why Go?", "(warm-up)", "[feedback] Score: 8/10. Solid."} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}

	buf.Reset()
	if got := printTurns(&buf, turns[:1], 4); got != 1 || buf.Len() != 0 {
		t.Fatalf("expected nothing printed for a shorter transcript, got %d %q", got, buf.String())
	}
}

func TestRedactedHidesAPIKey(t *testing.T) {
	config := &Config{AI: &AIConfig{Gemini: &GeminiConfig{APIKey: "secret", Model: "m"}}}

	safe := redacted(config)
	if safe.AI.Gemini.APIKey != "***" || safe.AI.Gemini.Model != "m" {
		t.Fatalf("unexpected redacted config: %+v", safe.AI.Gemini)
	}
	if config.AI.Gemini.APIKey != "secret" {
		t.Fatalf("original config must not change")
	}
}
