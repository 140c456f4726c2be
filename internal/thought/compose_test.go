package thought

import (
	"strings"
	"testing"
)

func sampleValues() Values {
	return Values{
		Situation:       "S",
		ANTs:            "A",
		Behaviors:       "B",
		Distortions:     []string{"Catastrophizing", "Labeling"},
		EvidenceAgainst: "E",
		FriendsAdvice:   "F",
		BalancedThought: "T",
	}
}

func TestCompose_Zero(t *testing.T) {
	if got := sampleValues().Compose(0); got != "" {
		t.Errorf("Compose(0) = %q, want empty", got)
	}
	if got := sampleValues().Compose(-3); got != "" {
		t.Errorf("Compose(-3) = %q, want empty", got)
	}
}

func TestCompose_Full(t *testing.T) {
	want := "Situation: S\n" +
		"Automatic Negative Thoughts (ANTs): A\n" +
		"Behaviors: B\n" +
		"Cognitive Distortions: Catastrophizing, Labeling\n" +
		"Evidence Against: E\n" +
		"Friend's Advice: F\n" +
		"Balanced Thought: T"
	if got := sampleValues().Compose(N); got != want {
		t.Errorf("Compose(N) =\n%s\nwant\n%s", got, want)
	}
	if got := sampleValues().Compose(N + 5); got != want {
		t.Errorf("Compose(N+5) not clamped: %q", got)
	}
}

func TestCompose_EmptyValuesKeepLabel(t *testing.T) {
	got := Values{Situation: "late for work"}.Compose(3)
	want := "Situation: late for work\nAutomatic Negative Thoughts (ANTs): \nBehaviors: "
	if got != want {
		t.Errorf("Compose(3) = %q, want %q", got, want)
	}
}

// TestCompose_PrefixDeterministic checks that for every i <= j the lines of
// Compose(i) are the leading lines of Compose(j).
func TestCompose_PrefixDeterministic(t *testing.T) {
	v := sampleValues()
	for j := 0; j <= N; j++ {
		full := v.Compose(j)
		for i := 0; i <= j; i++ {
			part := v.Compose(i)
			if i == 0 {
				if part != "" {
					t.Fatalf("Compose(0) = %q", part)
				}
				continue
			}
			if !strings.HasPrefix(full, part) {
				t.Fatalf("Compose(%d) is not a prefix of Compose(%d)", i, j)
			}
			if got := strings.Count(part, "\n") + 1; got != i {
				t.Fatalf("Compose(%d) has %d lines", i, got)
			}
		}
	}
}

func TestContextBefore(t *testing.T) {
	v := sampleValues()

	if got := v.ContextBefore(Situation); got != "" {
		t.Errorf("ContextBefore(situation) = %q, want empty", got)
	}
	got := v.ContextBefore(Distortions)
	if strings.Contains(got, "Cognitive Distortions") {
		t.Errorf("ContextBefore(distortions) includes the field itself: %q", got)
	}
	if !strings.HasSuffix(got, "Behaviors: B") {
		t.Errorf("ContextBefore(distortions) = %q", got)
	}
	if got := v.ContextBefore("unknown"); got != v.Compose(N) {
		t.Errorf("ContextBefore(unknown) = %q, want full context", got)
	}
}

func TestContextThrough(t *testing.T) {
	v := sampleValues()
	if got := v.ContextThrough(N); got != v.Compose(N) {
		t.Errorf("ContextThrough(N) = %q", got)
	}
	if got := v.ContextThrough(2); got != "Situation: S\nAutomatic Negative Thoughts (ANTs): A" {
		t.Errorf("ContextThrough(2) = %q", got)
	}
}

func TestValues_CloneIsDeep(t *testing.T) {
	v := sampleValues()
	c := v.Clone()
	c.Distortions[0] = "Filtering"
	if v.Distortions[0] != "Catastrophizing" {
		t.Error("Clone shares the distortions slice")
	}
}

func TestFields(t *testing.T) {
	fs := Fields()
	if len(fs) != N {
		t.Fatalf("len(Fields()) = %d, want %d", len(fs), N)
	}
	for i, f := range fs {
		if Index(f.Key) != i {
			t.Errorf("Index(%q) = %d, want %d", f.Key, Index(f.Key), i)
		}
	}
	if fs[3].Kind != MultiSelect {
		t.Errorf("distortions kind = %q", fs[3].Kind)
	}
	if _, ok := FieldAt(N); ok {
		t.Error("FieldAt(N) should not exist")
	}
	if !IsKnownDistortion("Mind Reading") || IsKnownDistortion("Mind reading") {
		t.Error("IsKnownDistortion is not exact-match")
	}
}
