package relay

import (
	"context"
	"testing"
)

func TestFallback_Deterministic(t *testing.T) {
	t.Parallel()

	p := NewFallbackProvider()
	for _, o := range []Orientation{OrientationAI, OrientationBalanced, OrientationHuman} {
		for _, size := range []int{0, 42, 99, 100, 5_000_000, 5_000_055} {
			file := File{Name: "a.wav", Data: make([]byte, size)}
			first, err := p.Analyze(context.Background(), file, o)
			if err != nil {
				t.Fatalf("fallback must never fail: %v", err)
			}
			second, _ := p.Analyze(context.Background(), file, o)
			if first.Verdict != second.Verdict {
				t.Fatalf("size=%d orientation=%s: verdicts differ (%s vs %s)", size, o, first.Verdict, second.Verdict)
			}
		}
	}
}

func TestFallback_ThresholdsPerOrientation(t *testing.T) {
	t.Parallel()

	// seed 55 sits between the ai_oriented (30) and human_oriented (70) cutoffs.
	file := File{Name: "a.wav", Data: make([]byte, 5_000_055)}
	p := NewFallbackProvider()

	cases := []struct {
		orientation Orientation
		want        Verdict
	}{
		{OrientationAI, VerdictObserved},       // 55 >= 30
		{OrientationBalanced, VerdictObserved}, // 55 >= 50
		{OrientationHuman, VerdictNotObserved}, // 55 < 70
	}
	for _, tc := range cases {
		out, err := p.Analyze(context.Background(), file, tc.orientation)
		if err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if out.Verdict != tc.want {
			t.Fatalf("orientation=%s: verdict = %s, want %s", tc.orientation, out.Verdict, tc.want)
		}
	}
}

func TestFallback_FiveMegabyteBalanced(t *testing.T) {
	t.Parallel()

	// 5_000_000 % 100 = 0, below the balanced threshold of 50.
	out, err := NewFallbackProvider().Analyze(context.Background(), File{Name: "a.wav", Data: make([]byte, 5_000_000)}, OrientationBalanced)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if out.Verdict != VerdictNotObserved {
		t.Fatalf("verdict = %s, want not_observed", out.Verdict)
	}
	if out.Notice == nil || *out.Notice == "" {
		t.Fatal("fallback outcome must carry a non-empty notice")
	}
}

func TestFallback_AlwaysNoticed(t *testing.T) {
	t.Parallel()

	p := NewFallbackProvider()
	for size := 0; size < 100; size++ {
		out, _ := p.Analyze(context.Background(), File{Data: make([]byte, size)}, OrientationBalanced)
		if out.Notice == nil || *out.Notice != FallbackNotice {
			t.Fatalf("size=%d: missing fallback notice", size)
		}
		if out.Verdict != VerdictObserved && out.Verdict != VerdictNotObserved {
			t.Fatalf("size=%d: verdict %q outside the closed enum", size, out.Verdict)
		}
	}
}

func TestParseOrientation(t *testing.T) {
	t.Parallel()

	if o, err := ParseOrientation(""); err != nil || o != OrientationBalanced {
		t.Fatalf("empty orientation should default to balanced, got %q err=%v", o, err)
	}
	if _, err := ParseOrientation("aggressive"); err == nil {
		t.Fatal("expected error for unknown orientation")
	}
	for _, s := range []string{"ai_oriented", "balanced", "human_oriented"} {
		if o, err := ParseOrientation(s); err != nil || string(o) != s {
			t.Fatalf("ParseOrientation(%q) = %q, %v", s, o, err)
		}
	}
}
