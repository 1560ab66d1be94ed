package dispatch

import "fmt"

// BatchFailure records one batch the gateway did not accept.
type BatchFailure struct {
	BatchIndex int    `json:"batch_index"`
	Size       int    `json:"size"`
	Detail     string `json:"detail"`
	// Permanent is true when the gateway classified the rejection as one
	// that retrying will not fix.
	Permanent  bool     `json:"permanent"`
	Recipients []string `json:"-"`
}

// Outcome summarizes a dispatch. Partial delivery and cancellation are
// both expressed here rather than as errors.
//
// Attempted always counts every recipient in the request. When the
// dispatch is cancelled, Cancelled is set and the never-issued tail is
// listed in Unattempted, so Attempted == Delivered + failed + len(Unattempted).
type Outcome struct {
	CampaignID  string         `json:"campaign_id"`
	Gateway     string         `json:"gateway,omitempty"`
	Attempted   int            `json:"attempted"`
	Delivered   int            `json:"delivered"`
	Success     bool           `json:"success"`
	Cancelled   bool           `json:"cancelled"`
	Batches     int            `json:"batches"`
	Failures    []BatchFailure `json:"failures"`
	Unattempted []string       `json:"unattempted,omitempty"`
}

// Failed returns the number of recipients in failed batches.
func (o *Outcome) Failed() int {
	n := 0
	for _, f := range o.Failures {
		n += f.Size
	}
	return n
}

// FailedRecipients returns the recipients of failed batches followed by
// the unattempted tail, preserving request order.
func (o *Outcome) FailedRecipients() []string {
	out := make([]string, 0, o.Failed()+len(o.Unattempted))
	for _, f := range o.Failures {
		out = append(out, f.Recipients...)
	}
	return append(out, o.Unattempted...)
}

// RetryableRecipients is FailedRecipients without the recipients of
// permanently rejected batches.
func (o *Outcome) RetryableRecipients() []string {
	var out []string
	for _, f := range o.Failures {
		if !f.Permanent {
			out = append(out, f.Recipients...)
		}
	}
	return append(out, o.Unattempted...)
}

// PermanentOnly reports whether every failure was permanent and nothing
// was left unattempted, i.e. a retry cannot improve the outcome.
func (o *Outcome) PermanentOnly() bool {
	if len(o.Unattempted) > 0 || len(o.Failures) == 0 {
		return false
	}
	for _, f := range o.Failures {
		if !f.Permanent {
			return false
		}
	}
	return true
}

// Status renders the outcome as the one-line message shown to users.
func (o *Outcome) Status() string {
	switch {
	case o.Success:
		return fmt.Sprintf("sent to all %d recipients", o.Delivered)
	case o.Cancelled:
		return fmt.Sprintf("cancelled after %d of %d recipients", o.Delivered, o.Attempted)
	default:
		return fmt.Sprintf("%d of %d recipients delivered, %d batch(es) failed",
			o.Delivered, o.Attempted, len(o.Failures))
	}
}
