package utils

import "testing"

func TestWordCount(t *testing.T) {
	if got := WordCount([]string{"a b c", "d e"}); got != 5 {
		t.Fatalf("expected 5 words, got %d", got)
	}
	if got := WordCount([]string{"", "   ", ""}); got != 0 {
		t.Fatalf("expected 0 words, got %d", got)
	}
	if got := WordCount(nil); got != 0 {
		t.Fatalf("expected 0 words for nil input, got %d", got)
	}
	if got := WordCount([]string{"  spaced   out\ttokens \n here "}); got != 4 {
		t.Fatalf("expected 4 words, got %d", got)
	}
}
