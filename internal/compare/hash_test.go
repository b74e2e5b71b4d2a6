package compare

import "testing"

func TestHashTextDeterministic(t *testing.T) {
	a := HashText("the quick brown fox")
	b := HashText("the quick brown fox")
	if a != b {
		t.Errorf("identical input produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestHashTextSingleByteSensitivity(t *testing.T) {
	a := HashText("net thirty days")
	b := HashText("net thirty days.")
	if a == b {
		t.Error("one-byte change must produce a different digest")
	}
}

func TestHashSectionsBoundariesMatter(t *testing.T) {
	joined := []Section{{Title: "AB", Text: "C"}}
	split := []Section{{Title: "A", Text: "BC"}}
	if HashSections(joined) == HashSections(split) {
		t.Error("section boundaries must affect the digest")
	}
}
