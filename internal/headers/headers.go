// Package headers builds the deliverability headers attached to every
// outbound campaign message.
package headers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header names set by Build.
const (
	ListUnsubscribe        = "List-Unsubscribe"
	CampaignID             = "X-Campaign-ID"
	EntityRefID            = "X-Entity-Ref-ID"
	Precedence             = "Precedence"
	AutoResponseSuppress   = "X-Auto-Response-Suppress"
	ReportAbuse            = "X-Report-Abuse"
	ListID                 = "List-Id"
	SendTimestamp          = "X-Send-Timestamp"
	UnsubscribePlaceholder = "{{unsubscribe_url}}"
	AbusePlaceholder       = "{{abuse_url}}"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// now is replaced in tests.
var now = time.Now

// Build returns the header set for one campaign. Every call yields a
// distinct X-Entity-Ref-ID.
func Build(campaignID, senderName, gatewayHost string) map[string]string {
	return map[string]string{
		ListUnsubscribe:      "<" + UnsubscribePlaceholder + ">",
		CampaignID:           "campaign-" + campaignID,
		EntityRefID:          entityRef(),
		Precedence:           "bulk",
		AutoResponseSuppress: "OOF, AutoReply",
		ReportAbuse:          "Please report abuse here: " + AbusePlaceholder,
		ListID:               ListIdentifier(senderName, gatewayHost),
	}
}

// ListIdentifier sanitizes senderName (non-alphanumerics become '-', then
// lower-cased) and joins it to host with a dot.
func ListIdentifier(senderName, host string) string {
	name := strings.ToLower(nonAlphanumeric.ReplaceAllString(senderName, "-"))
	return name + "." + host
}

// WithTimestamp returns a copy of h carrying the send time.
func WithTimestamp(h map[string]string, t time.Time) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	out[SendTimestamp] = t.UTC().Format(time.RFC3339)
	return out
}

func entityRef() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", now().UnixMilli(), suffix[:12])
}
