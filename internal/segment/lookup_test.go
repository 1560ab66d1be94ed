package segment

import (
	"testing"
	"time"
)

func groupFixture() []*Subscriber {
	return []*Subscriber{
		{ID: "1", Groups: []string{GroupNew, GroupHighOpener}},
		{ID: "2", Groups: []string{GroupHighOpener}},
		{ID: "3", Groups: []string{GroupLost}},
	}
}

func ids(subs []*Subscriber) []string {
	out := make([]string, 0, len(subs))
	for _, s := range subs {
		out = append(out, s.ID)
	}
	return out
}

func TestByGroups(t *testing.T) {
	groups := []string{GroupNew, GroupHighOpener}

	assertLabels(t, ids(ByGroups(groupFixture(), groups, true)), []string{"1"})
	assertLabels(t, ids(ByGroups(groupFixture(), groups, false)), []string{"1", "2"})
	assertLabels(t, ids(ByGroups(groupFixture(), nil, true)), []string{"1", "2", "3"})
	assertLabels(t, ids(ByGroups(groupFixture(), []string{GroupHighOpener}, false)), []string{"1", "2"})
	assertLabels(t, ids(ByGroups(groupFixture(), []string{"missing"}, false)), []string{})
}

func TestFilter(t *testing.T) {
	opened := testNow.Add(-time.Hour)
	subs := []*Subscriber{
		{ID: "a", Status: StatusActive, Lists: []string{"news"}, DateAdded: testNow.Add(-2 * time.Hour), Engagement: Engagement{LastOpened: &opened}},
		{ID: "b", Status: StatusInactive, Lists: []string{"promo"}, DateAdded: daysAgo(20)},
		{ID: "c", Status: StatusActive, Lists: []string{"promo", "news"}, DateAdded: daysAgo(200), Engagement: Engagement{LastClicked: &opened}},
	}

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"zero criteria", Criteria{}, []string{"a", "b", "c"}},
		{"status", Criteria{Statuses: []Status{StatusActive}}, []string{"a", "c"}},
		{"lists", Criteria{Lists: []string{"promo"}}, []string{"b", "c"}},
		{"today", Criteria{DateRange: RangeToday}, []string{"a"}},
		{"month", Criteria{DateRange: RangeMonth}, []string{"a", "b"}},
		{"year", Criteria{DateRange: RangeYear}, []string{"a", "b", "c"}},
		{"opened", Criteria{Activity: ActivityOpened}, []string{"a"}},
		{"clicked", Criteria{Activity: ActivityClicked}, []string{"c"}},
		{"none", Criteria{Activity: ActivityNone}, []string{"b"}},
		{"combined", Criteria{Statuses: []Status{StatusActive}, Lists: []string{"news"}, DateRange: RangeWeek}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertLabels(t, ids(Filter(subs, tt.c, testNow)), tt.want)
		})
	}
}

func TestCriteria_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr bool
	}{
		{"zero", Criteria{}, false},
		{"known values", Criteria{DateRange: RangeQuarter, Activity: ActivityNone}, false},
		{"unknown range", Criteria{DateRange: "decade"}, true},
		{"unknown activity", Criteria{Activity: "bounced"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCriteria_IsZero(t *testing.T) {
	if !(Criteria{DateRange: RangeAll, Activity: ActivityAll}).IsZero() {
		t.Error("all/all criteria should be zero")
	}
	if (Criteria{Lists: []string{"news"}}).IsZero() {
		t.Error("list criteria should not be zero")
	}
}
