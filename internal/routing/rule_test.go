package routing

import (
	"reflect"
	"testing"
)

func TestRule_Validate(t *testing.T) {
	empty := Rule{SenderDomain: "acme.test", FallbackOrder: []string{"ses"}}
	if err := empty.Validate(); err == nil || err.Error() != "primary gateway is required" {
		t.Errorf("Validate() = %v", err)
	}
	ok := Rule{PrimaryGateway: "postal"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestRule_candidates(t *testing.T) {
	r := Rule{PrimaryGateway: "postal", FallbackOrder: []string{"ses", "postal", "", "sendgrid", "ses"}}
	want := []string{"postal", "ses", "sendgrid"}
	if got := r.candidates(); !reflect.DeepEqual(got, want) {
		t.Errorf("candidates() = %v, want %v", got, want)
	}
}

func TestSenderDomain(t *testing.T) {
	tests := map[string]string{
		"news@Acme.Test":             "acme.test",
		"Acme News <news@acme.test>": "acme.test",
		"no-at-sign":                 "",
		" spaced@mail.acme.test ":    "mail.acme.test",
	}
	for in, want := range tests {
		if got := senderDomain(in); got != want {
			t.Errorf("senderDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
