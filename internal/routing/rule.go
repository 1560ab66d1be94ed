package routing

import (
	"errors"
	"strings"
)

// Rule selects gateways for mail sent from one sender domain.
type Rule struct {
	// SenderDomain is matched case-insensitively against the part of the
	// sender address after "@". Empty marks the default rule.
	SenderDomain   string   `mapstructure:"sender_domain"`
	PrimaryGateway string   `mapstructure:"primary"`
	FallbackOrder  []string `mapstructure:"fallback"`
}

// Validate checks that the rule names a primary gateway.
func (r *Rule) Validate() error {
	if r.PrimaryGateway == "" {
		return errors.New("primary gateway is required")
	}
	return nil
}

// candidates returns the primary followed by the fallbacks, skipping
// repeats.
func (r *Rule) candidates() []string {
	out := make([]string, 0, 1+len(r.FallbackOrder))
	seen := make(map[string]bool, 1+len(r.FallbackOrder))
	for _, name := range append([]string{r.PrimaryGateway}, r.FallbackOrder...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// senderDomain extracts the lower-cased domain of an address such as
// "News <news@acme.test>".
func senderDomain(sender string) string {
	sender = strings.TrimSuffix(strings.TrimSpace(sender), ">")
	at := strings.LastIndexByte(sender, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(sender[at+1:])
}
