package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

func TestSummarize(t *testing.T) {
	llm := &stubLLM{text: "  You are curious.  "}
	got, err := NewSummarizeService(nil, llm).Summarize(context.Background(), "Name: Ada")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "You are curious." {
		t.Fatalf("summary: want=%q got=%q", "You are curious.", got)
	}
	if !strings.HasSuffix(llm.users[0], "Name: Ada") {
		t.Fatalf("user prompt should end with the aggregated text: %q", llm.users[0])
	}
}

func TestSummarizeEmptyOutputIsFatal(t *testing.T) {
	llm := &stubLLM{text: "   "}
	_, err := NewSummarizeService(nil, llm).Summarize(context.Background(), "Name: Ada")
	if got := apierr.CodeOf(err); got != "summary_empty" {
		t.Fatalf("code: want=%q got=%q", "summary_empty", got)
	}
	if apierr.KindOf(err) != apierr.KindUpstreamResponse {
		t.Fatalf("kind: want=%q got=%q", apierr.KindUpstreamResponse, apierr.KindOf(err))
	}
}

func TestSummarizePropagatesTimeout(t *testing.T) {
	llm := &stubLLM{textErr: apierr.UpstreamTimeout("openai_timeout", errors.New("slow"))}
	_, err := NewSummarizeService(nil, llm).Summarize(context.Background(), "x")
	if apierr.KindOf(err) != apierr.KindUpstreamTimeout {
		t.Fatalf("kind: want=%q got=%q", apierr.KindUpstreamTimeout, apierr.KindOf(err))
	}
}

func TestSummarizeRejectsEmptyInput(t *testing.T) {
	llm := &stubLLM{text: "x"}
	_, err := NewSummarizeService(nil, llm).Summarize(context.Background(), " ")
	if apierr.KindOf(err) != apierr.KindInvalidRequest {
		t.Fatalf("kind: want=%q got=%q", apierr.KindInvalidRequest, apierr.KindOf(err))
	}
	if llm.textCalls != 0 {
		t.Fatalf("llm calls: want=0 got=%d", llm.textCalls)
	}
}
