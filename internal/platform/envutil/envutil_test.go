package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("SPIRIT_TEST_DURATION", "90s")
	if got := Duration("SPIRIT_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("duration: want=90s got=%s", got)
	}
	t.Setenv("SPIRIT_TEST_DURATION", "2.5")
	if got := Duration("SPIRIT_TEST_DURATION", time.Second); got != 2500*time.Millisecond {
		t.Fatalf("seconds: want=2.5s got=%s", got)
	}
	t.Setenv("SPIRIT_TEST_DURATION", "soon")
	if got := Duration("SPIRIT_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("fallback: want=1s got=%s", got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("SPIRIT_TEST_BOOL", "off")
	if Bool("SPIRIT_TEST_BOOL", true) {
		t.Fatalf("bool: want=false")
	}
	t.Setenv("SPIRIT_TEST_BOOL", "maybe")
	if !Bool("SPIRIT_TEST_BOOL", true) {
		t.Fatalf("bool fallback: want=true")
	}
	t.Setenv("SPIRIT_TEST_INT", "x")
	if got := Int("SPIRIT_TEST_INT", 7); got != 7 {
		t.Fatalf("int fallback: want=7 got=%d", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("SPIRIT_TEST_LIST", " a, ,b ,c")
	got := List("SPIRIT_TEST_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("list: got=%v", got)
	}
}
