package analyses

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"estate-gap-backend/internal/llm"
)

func TestTransientGeneratorError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("openai http status 502"), true},
		{errors.New("openai request timeout"), true},
		{errors.New("sandbox generator timeout after 2m0s"), true},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("openai http status 401"), false},
		{llm.ErrNotImplemented, false},
		{context.Canceled, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := transientGeneratorError(tc.err); got != tc.want {
			t.Errorf("transientGeneratorError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestGeneratorRetryKeepsLastFailure(t *testing.T) {
	prev := generatorRetryDelay
	generatorRetryDelay = time.Millisecond
	t.Cleanup(func() { generatorRetryDelay = prev })

	upstream := errors.New("openai http status 503")
	gen := &stubLLM{
		outputs: []llm.Output{{Console: "first"}, {Console: "partial"}},
		errs:    []error{upstream, upstream},
	}
	out, err := withGeneratorRetry(gen, "a-1", "req-1").GenerateGapAnalysis(context.Background(), llm.GapInput{})
	if !errors.Is(err, upstream) || err.Error() != upstream.Error() {
		t.Fatalf("expected the generator error back, got %v", err)
	}
	if out.Console != "partial" || gen.callCount() != 1+generatorRetries {
		t.Fatalf("unexpected output %+v after %d calls", out, gen.callCount())
	}
}

func TestGeneratorRetrySkipsPermanentFailure(t *testing.T) {
	gen := &stubLLM{errs: []error{errors.New("openai http status 400")}}
	if _, err := withGeneratorRetry(gen, "a-1", "").GenerateGapAnalysis(context.Background(), llm.GapInput{}); err == nil {
		t.Fatalf("expected error")
	}
	if gen.callCount() != 1 {
		t.Fatalf("permanent failure retried: %d calls", gen.callCount())
	}
}
