package segment

import (
	"math"
	"time"
)

// Classifier evaluates a set of rules against subscriber snapshots.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
	now   func() time.Time
}

// NewClassifier returns a Classifier using clock for "days since"
// computations. A nil clock uses time.Now; no rules means DefaultRules.
func NewClassifier(clock func() time.Time, rules ...Rule) *Classifier {
	if clock == nil {
		clock = time.Now
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, now: clock}
}

// Rules returns the names of the configured rules in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Classify returns the union of all rule labels for sub, without
// duplicates, in first-seen order.
func (c *Classifier) Classify(sub *Subscriber) []string {
	now := c.now()
	seen := make(map[string]struct{})
	var groups []string
	for _, r := range c.rules {
		for _, label := range r.Eval(sub, now) {
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			groups = append(groups, label)
		}
	}
	return groups
}

// Regroup returns a copy of sub whose group set is replaced by Classify.
func (c *Classifier) Regroup(sub Subscriber) Subscriber {
	sub.Groups = c.Classify(&sub)
	return sub
}

// DaysSince returns the whole days elapsed from t to now, rounded down.
// Future dates yield 0.
func DaysSince(now, t time.Time) int {
	d := now.Sub(t)
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Hours() / 24))
}
