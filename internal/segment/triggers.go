package segment

import "time"

// Automation trigger identifiers.
const (
	TriggerReactivation    = "reactivation"
	TriggerUpsell          = "upsell"
	TriggerCartRecovery    = "cart_recovery"
	TriggerEngagementBoost = "engagement_boost"
	TriggerVIPUpgrade      = "vip_upgrade"
)

// Trigger is an automation condition over a subscriber snapshot.
type Trigger struct {
	ID        string
	Name      string
	Condition Evaluator
}

// DefaultTriggers returns the built-in automation triggers.
func DefaultTriggers() []Trigger {
	return []Trigger{
		{ID: TriggerReactivation, Name: "Reactivate Unengaged Subscriber", Condition: reactivation},
		{ID: TriggerUpsell, Name: "High-Ticket Upsell Opportunity", Condition: upsell},
		{ID: TriggerCartRecovery, Name: "Abandoned Cart Recovery", Condition: cartRecovery},
		{ID: TriggerEngagementBoost, Name: "Boost Low Engagement", Condition: engagementBoost},
		{ID: TriggerVIPUpgrade, Name: "VIP Status Upgrade", Condition: vipUpgrade},
	}
}

// Triggers returns the IDs of the automation triggers that fire for sub.
func (c *Classifier) Triggers(sub *Subscriber) []string {
	now := c.now()
	var fired []string
	for _, t := range DefaultTriggers() {
		if len(t.Condition(sub, now)) > 0 {
			fired = append(fired, t.ID)
		}
	}
	return fired
}

func fire(ok bool, id string) []string {
	if ok {
		return []string{id}
	}
	return nil
}

func reactivation(sub *Subscriber, now time.Time) []string {
	d := DaysSince(now, sub.Journey.LastActive)
	return fire(d > 90 && d <= 180, TriggerReactivation)
}

func upsell(sub *Subscriber, _ time.Time) []string {
	ok := len(sub.Purchases.Purchases) > 0 &&
		sub.Engagement.EngagementScore > 7 &&
		!sub.Purchases.hasType(PurchaseHighTicket)
	return fire(ok, TriggerUpsell)
}

func cartRecovery(sub *Subscriber, now time.Time) []string {
	for _, cart := range sub.Purchases.AbandonedCarts {
		if !cart.Recovered && DaysSince(now, cart.Date) <= 3 {
			return []string{TriggerCartRecovery}
		}
	}
	return nil
}

func engagementBoost(sub *Subscriber, _ time.Time) []string {
	return fire(sub.Engagement.EngagementScore < 5 && sub.Status == StatusActive, TriggerEngagementBoost)
}

func vipUpgrade(sub *Subscriber, _ time.Time) []string {
	return fire(sub.Purchases.Spend() > 1000 && !sub.InGroup(GroupVIPMember), TriggerVIPUpgrade)
}
