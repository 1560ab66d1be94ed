package segment

import "time"

// Group labels produced by the default rules.
const (
	GroupNew       = "new"
	GroupEngaged   = "engaged"
	GroupConverted = "converted"
	GroupUnengaged = "unengaged"
	GroupLost      = "lost"

	GroupHighOpener      = "high_opener"
	GroupFrequentClicker = "frequent_clicker"
	GroupWebsiteVisitor  = "website_visitor"
	GroupCartAbandoner   = "cart_abandoner"

	GroupNonBuyer        = "non_buyer"
	GroupSubscription    = "subscription"
	GroupHighTicket      = "high_ticket"
	GroupUpsellCandidate = "upsell_candidate"

	GroupEbookReader     = "ebook_reader"
	GroupWebinarAttendee = "webinar_attendee"
	GroupResourceUser    = "resource_user"

	GroupNewMember     = "new_member"
	GroupVIPMember     = "vip_member"
	GroupLoyalMember   = "loyal_member"
	GroupRegularMember = "regular_member"
)

// Rule names.
const (
	RuleJourney    = "journey"
	RuleEngagement = "engagement"
	RulePurchase   = "purchase"
	RuleContent    = "content"
	RuleLoyalty    = "loyalty"
)

// Evaluator returns the labels a rule assigns to sub at time now.
type Evaluator func(sub *Subscriber, now time.Time) []string

// Rule is a named, independently evaluable evaluator.
type Rule struct {
	Name string
	Eval Evaluator
}

// DefaultRules returns the five rule families in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleJourney, Eval: JourneyGroups},
		{Name: RuleEngagement, Eval: EngagementGroups},
		{Name: RulePurchase, Eval: PurchaseGroups},
		{Name: RuleContent, Eval: ContentGroups},
		{Name: RuleLoyalty, Eval: LoyaltyGroups},
	}
}

// JourneyGroups tags lifecycle stage. Labels are not mutually exclusive.
func JourneyGroups(sub *Subscriber, now time.Time) []string {
	var groups []string
	sinceJoin := DaysSince(now, sub.Journey.JoinDate)
	sinceActive := DaysSince(now, sub.Journey.LastActive)

	if sinceJoin <= 30 {
		groups = append(groups, GroupNew)
	}
	if sub.Engagement.EngagementScore >= 7 {
		groups = append(groups, GroupEngaged)
	}
	if len(sub.Purchases.Purchases) > 0 {
		groups = append(groups, GroupConverted)
	}
	if sinceActive > 90 {
		groups = append(groups, GroupUnengaged)
	}
	if sinceActive > 180 {
		groups = append(groups, GroupLost)
	}
	return groups
}

func EngagementGroups(sub *Subscriber, _ time.Time) []string {
	var groups []string
	e := sub.Engagement

	if e.OpenRate >= 0.5 {
		groups = append(groups, GroupHighOpener)
	}
	if e.ClickRate >= 0.3 {
		groups = append(groups, GroupFrequentClicker)
	}
	if e.WebsiteVisits > 5 {
		groups = append(groups, GroupWebsiteVisitor)
	}
	if len(sub.Purchases.AbandonedCarts) > 0 {
		groups = append(groups, GroupCartAbandoner)
	}
	return groups
}

func PurchaseGroups(sub *Subscriber, _ time.Time) []string {
	var groups []string
	p := sub.Purchases
	highTicket := p.hasType(PurchaseHighTicket)

	if len(p.Purchases) == 0 {
		groups = append(groups, GroupNonBuyer)
	}
	if p.hasType(PurchaseSubscription) {
		groups = append(groups, GroupSubscription)
	}
	if highTicket {
		groups = append(groups, GroupHighTicket)
	}
	if len(p.Purchases) > 0 && !highTicket {
		groups = append(groups, GroupUpsellCandidate)
	}
	return groups
}

func ContentGroups(sub *Subscriber, _ time.Time) []string {
	var groups []string
	j := sub.Journey

	if j.hasLeadMagnet(LeadMagnetEbook) {
		groups = append(groups, GroupEbookReader)
	}
	if j.attendedWebinars() > 0 {
		groups = append(groups, GroupWebinarAttendee)
	}
	if j.hasLeadMagnet(LeadMagnetResource) {
		groups = append(groups, GroupResourceUser)
	}
	return groups
}

// LoyaltyGroups assigns exactly one membership tier; the first matching tier wins.
func LoyaltyGroups(sub *Subscriber, now time.Time) []string {
	sinceJoin := DaysSince(now, sub.Journey.JoinDate)
	spend := sub.Purchases.Spend()

	switch {
	case sinceJoin <= 30:
		return []string{GroupNewMember}
	case sinceJoin > 180 && spend > 1000:
		return []string{GroupVIPMember}
	case sinceJoin > 90 && spend > 500:
		return []string{GroupLoyalMember}
	default:
		return []string{GroupRegularMember}
	}
}
