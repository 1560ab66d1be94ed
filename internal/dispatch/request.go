package dispatch

import (
	"fmt"
	"net/mail"
	"strings"
)

// Request is one approved campaign ready to send.
type Request struct {
	// CampaignID tags every batch; generated when empty.
	CampaignID string   `json:"campaign_id,omitempty"`
	Subject    string   `json:"subject"`
	HTMLBody   string   `json:"html_body"`
	FromName   string   `json:"from_name"`
	FromEmail  string   `json:"from_email"`
	ReplyTo    string   `json:"reply_to,omitempty"`
	Recipients []string `json:"recipients"`

	// Progress receives the completed percentage after every batch.
	Progress func(percent int) `json:"-"`
}

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidationErrors collects every problem found in a request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "invalid dispatch request: " + strings.Join(parts, "; ")
}

// Validate checks the request before any batch is sent. It returns
// ValidationErrors or nil.
func Validate(req *Request) error {
	if req == nil {
		return ValidationErrors{{Field: "request", Reason: "is required"}}
	}

	var errs ValidationErrors
	if strings.TrimSpace(req.Subject) == "" {
		errs = append(errs, ValidationError{Field: "subject", Reason: "is required"})
	}
	if strings.ContainsAny(req.FromName, "<>\r\n") {
		errs = append(errs, ValidationError{Field: "from_name", Reason: "must not contain angle brackets or line breaks"})
	}
	if err := validAddress(req.FromEmail); err != nil {
		errs = append(errs, ValidationError{Field: "from_email", Reason: err.Error()})
	}
	if req.ReplyTo != "" {
		if err := validAddress(req.ReplyTo); err != nil {
			errs = append(errs, ValidationError{Field: "reply_to", Reason: err.Error()})
		}
	}
	for i, r := range req.Recipients {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("recipients[%d]", i), Reason: "is empty"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validAddress accepts a bare addr-spec such as news@acme.test.
func validAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return fmt.Errorf("%q is not a valid email address", addr)
	}
	return nil
}
