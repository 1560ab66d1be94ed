package gateway

import "testing"

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in, name, addr string
	}{
		{"Acme News <news@acme.test>", "Acme News", "news@acme.test"},
		{"news@acme.test", "", "news@acme.test"},
		{"  <bare@acme.test> ", "", "bare@acme.test"},
		{"Broken <news@acme.test", "", "Broken <news@acme.test"},
	}
	for _, tt := range tests {
		name, addr := SplitAddress(tt.in)
		if name != tt.name || addr != tt.addr {
			t.Errorf("SplitAddress(%q) = (%q, %q), want (%q, %q)", tt.in, name, addr, tt.name, tt.addr)
		}
	}
}

func TestFormatAddress(t *testing.T) {
	if got := FormatAddress("Acme", "a@acme.test"); got != "Acme <a@acme.test>" {
		t.Errorf("got %q", got)
	}
	if got := FormatAddress("", "a@acme.test"); got != "a@acme.test" {
		t.Errorf("got %q", got)
	}
}
