// Package segment classifies subscribers into marketing groups from their
// behavioral signals.
package segment

import "time"

// Status is the subscription state of a subscriber.
type Status string

const (
	StatusActive       Status = "active"
	StatusInactive     Status = "inactive"
	StatusUnsubscribed Status = "unsubscribed"
)

// PurchaseType categorizes a purchase.
type PurchaseType string

const (
	PurchaseOneTime      PurchaseType = "one-time"
	PurchaseSubscription PurchaseType = "subscription"
	PurchaseHighTicket   PurchaseType = "high-ticket"
)

// Lead magnet types recognized by the content rules.
const (
	LeadMagnetEbook    = "ebook"
	LeadMagnetResource = "resource"
)

// Subscriber is a read-only snapshot of one subscriber.
type Subscriber struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Name       string          `json:"name,omitempty"`
	Status     Status          `json:"status"`
	DateAdded  time.Time       `json:"date_added"`
	Lists      []string        `json:"lists,omitempty"`
	Tags       []string        `json:"tags,omitempty"`
	Groups     []string        `json:"groups,omitempty"`
	Engagement Engagement      `json:"engagement"`
	Journey    Journey         `json:"journey"`
	Purchases  PurchaseHistory `json:"purchases"`
}

// Engagement holds interaction metrics. Rates are fractions in [0,1].
type Engagement struct {
	LastOpened      *time.Time `json:"last_opened,omitempty"`
	LastClicked     *time.Time `json:"last_clicked,omitempty"`
	OpenRate        float64    `json:"open_rate"`
	ClickRate       float64    `json:"click_rate"`
	WebsiteVisits   int        `json:"website_visits"`
	TotalOpens      int        `json:"total_opens"`
	TotalClicks     int        `json:"total_clicks"`
	EngagementScore float64    `json:"engagement_score"`
}

// Journey holds lifecycle dates and content interactions.
type Journey struct {
	Stage             string              `json:"stage,omitempty"`
	JoinDate          time.Time           `json:"join_date"`
	LastActive        time.Time           `json:"last_active"`
	LeadMagnets       []LeadMagnet        `json:"lead_magnets,omitempty"`
	WebinarAttendance []WebinarAttendance `json:"webinar_attendance,omitempty"`
	Surveys           []SurveyResponse    `json:"surveys,omitempty"`
}

type LeadMagnet struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

type WebinarAttendance struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
	Attended bool      `json:"attended"`
}

type SurveyResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PurchaseHistory holds purchases and abandoned carts.
type PurchaseHistory struct {
	TotalSpent     float64         `json:"total_spent"`
	FirstPurchase  *time.Time      `json:"first_purchase,omitempty"`
	LastPurchase   *time.Time      `json:"last_purchase,omitempty"`
	Purchases      []Purchase      `json:"purchases,omitempty"`
	AbandonedCarts []AbandonedCart `json:"abandoned_carts,omitempty"`
}

type Purchase struct {
	ID      string       `json:"id"`
	Product string       `json:"product"`
	Amount  float64      `json:"amount"`
	Type    PurchaseType `json:"type"`
	Date    time.Time    `json:"date"`
}

type AbandonedCart struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Recovered bool      `json:"recovered"`
}

// Spend returns TotalSpent, or the sum of purchase amounts when TotalSpent
// has not been recorded.
func (p PurchaseHistory) Spend() float64 {
	if p.TotalSpent > 0 {
		return p.TotalSpent
	}
	var sum float64
	for _, pu := range p.Purchases {
		sum += pu.Amount
	}
	return sum
}

func (p PurchaseHistory) hasType(t PurchaseType) bool {
	for _, pu := range p.Purchases {
		if pu.Type == t {
			return true
		}
	}
	return false
}

func (j Journey) hasLeadMagnet(kind string) bool {
	for _, lm := range j.LeadMagnets {
		if lm.Type == kind {
			return true
		}
	}
	return false
}

func (j Journey) attendedWebinars() int {
	n := 0
	for _, w := range j.WebinarAttendance {
		if w.Attended {
			n++
		}
	}
	return n
}

func (j Journey) completedSurveys() int {
	n := 0
	for _, s := range j.Surveys {
		if s.Completed {
			n++
		}
	}
	return n
}

// InGroup reports whether the subscriber currently carries label.
func (s *Subscriber) InGroup(label string) bool {
	for _, g := range s.Groups {
		if g == label {
			return true
		}
	}
	return false
}
