package segment

import (
	"fmt"
	"time"
)

// Date ranges accepted by Criteria.DateRange.
const (
	RangeAll     = "all"
	RangeToday   = "today"
	RangeWeek    = "week"
	RangeMonth   = "month"
	RangeQuarter = "quarter"
	RangeYear    = "year"
)

// Activity filters accepted by Criteria.Activity.
const (
	ActivityAll     = "all"
	ActivityOpened  = "opened"
	ActivityClicked = "clicked"
	ActivityNone    = "none"
)

var rangeDays = map[string]int{
	RangeWeek:    7,
	RangeMonth:   30,
	RangeQuarter: 90,
	RangeYear:    365,
}

// Criteria narrows a subscriber list. Empty slices and empty strings match
// everything.
type Criteria struct {
	Statuses  []Status `json:"statuses,omitempty"`
	Lists     []string `json:"lists,omitempty"`
	DateRange string   `json:"date_range,omitempty"`
	Activity  string   `json:"activity,omitempty"`
}

// ByGroups returns the subscribers carrying all of groups (matchAll) or
// any of them. No groups matches everyone.
func ByGroups(subs []*Subscriber, groups []string, matchAll bool) []*Subscriber {
	if len(groups) == 0 {
		return subs
	}
	var out []*Subscriber
	for _, sub := range subs {
		if matchGroups(sub, groups, matchAll) {
			out = append(out, sub)
		}
	}
	return out
}

func matchGroups(sub *Subscriber, groups []string, matchAll bool) bool {
	if matchAll {
		for _, g := range groups {
			if !sub.InGroup(g) {
				return false
			}
		}
		return true
	}
	for _, g := range groups {
		if sub.InGroup(g) {
			return true
		}
	}
	return false
}

// IsZero reports whether c matches every subscriber.
func (c Criteria) IsZero() bool {
	return len(c.Statuses) == 0 && len(c.Lists) == 0 &&
		(c.DateRange == "" || c.DateRange == RangeAll) &&
		(c.Activity == "" || c.Activity == ActivityAll)
}

// Validate rejects unknown date ranges and activity filters.
func (c Criteria) Validate() error {
	switch c.DateRange {
	case "", RangeAll, RangeToday, RangeWeek, RangeMonth, RangeQuarter, RangeYear:
	default:
		return fmt.Errorf("segment: unknown date range %q", c.DateRange)
	}
	switch c.Activity {
	case "", ActivityAll, ActivityOpened, ActivityClicked, ActivityNone:
	default:
		return fmt.Errorf("segment: unknown activity filter %q", c.Activity)
	}
	return nil
}

// Filter returns the subscribers matching every populated field of c.
func Filter(subs []*Subscriber, c Criteria, now time.Time) []*Subscriber {
	if c.IsZero() {
		return subs
	}
	out := make([]*Subscriber, 0, len(subs))
	for _, sub := range subs {
		if c.Match(sub, now) {
			out = append(out, sub)
		}
	}
	return out
}

// Match reports whether sub satisfies every populated field of c.
func (c Criteria) Match(sub *Subscriber, now time.Time) bool {
	if len(c.Statuses) > 0 && !containsStatus(c.Statuses, sub.Status) {
		return false
	}
	if len(c.Lists) > 0 && !intersects(c.Lists, sub.Lists) {
		return false
	}

	switch c.DateRange {
	case "", RangeAll:
	case RangeToday:
		if sub.DateAdded.In(now.Location()).Format(time.DateOnly) != now.Format(time.DateOnly) {
			return false
		}
	default:
		if days, ok := rangeDays[c.DateRange]; ok && sub.DateAdded.Before(now.AddDate(0, 0, -days)) {
			return false
		}
	}

	opened := sub.Engagement.LastOpened != nil
	clicked := sub.Engagement.LastClicked != nil
	switch c.Activity {
	case ActivityOpened:
		return opened
	case ActivityClicked:
		return clicked
	case ActivityNone:
		return !opened && !clicked
	}
	return true
}

func containsStatus(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
