package tokens

import "testing"

func TestEstimatorEmpty(t *testing.T) {
	if got := (Estimator{}).Count(""); got != 0 {
		t.Fatalf("empty text = %d tokens", got)
	}
}

func TestEstimatorNonZeroForText(t *testing.T) {
	e := Estimator{}
	if got := e.Count("x"); got < 1 {
		t.Fatalf("single rune = %d tokens", got)
	}
	short := e.Count("hello world")
	long := e.Count("hello world this is a much longer sentence with many more words in it")
	if long <= short {
		t.Fatalf("longer text should cost more: short=%d long=%d", short, long)
	}
}

func TestEstimatorScalesWithLength(t *testing.T) {
	e := Estimator{}
	// ~4 runes per token for unbroken text
	if got := e.Count("aaaaaaaaaaaaaaaa"); got < 4 {
		t.Fatalf("16 runes = %d tokens, want >= 4", got)
	}
}

func TestDefaultNeverNil(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default returned nil counter")
	}
}
