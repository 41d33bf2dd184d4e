package display

import (
	"bytes"
	"testing"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.EndLine()
	if buf.Len() != 0 {
		t.Fatalf("EndLine on clean console wrote %q", buf.String())
	}

	c.PriceUpdate(Update{SecondsRemaining: 312, YesCents: 62, NoCents: 41})
	c.EndLine()
	c.EndLine()

	want := "\r⏱ T-312s | YES: 62¢ | NO: 41¢      \n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestSinkFunc(t *testing.T) {
	var got []Update
	var s Sink = SinkFunc(func(u Update) { got = append(got, u) })

	s.PriceUpdate(Update{SecondsRemaining: 1, YesCents: 2, NoCents: 3})
	if len(got) != 1 || got[0].NoCents != 3 {
		t.Errorf("got %+v", got)
	}
}
