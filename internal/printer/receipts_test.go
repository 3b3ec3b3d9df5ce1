package printer

import (
	"log/slog"
	"testing"
)

func TestMaskPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0792123401", "0792******01"},
		{"+254 792 123 401", "2547******01"},
		{"0712-345-678", "0712******78"},
		{"123456", "1234******56"},
		{"12345", "12345"},
		{"ext 42", "ext 42"},
		{"", ""},
	}
	for _, c := range cases {
		if got := MaskPhone(c.in); got != c.want {
			t.Errorf("MaskPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPrintWithoutPrinterConfigured(t *testing.T) {
	p := New("", slog.Default())
	if p.print("test", "hello") {
		t.Error("printing must fail when no printer address is configured")
	}
}
