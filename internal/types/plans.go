package types

// PlanLimits maps a gated action to the number of uses allowed per billing
// period. A negative limit means unlimited.
type PlanLimits map[string]int

var plans = map[string]PlanLimits{
	"free": {
		ActionAdResponse: 5,
		ActionOpenAd:     3,
		ActionListing:    2,
	},
	"pro": {
		ActionAdResponse: -1,
		ActionOpenAd:     25,
		ActionListing:    20,
	},
}

// LimitFor returns the per-period limit for an action on a plan. Unknown
// plans fall back to the free plan; unknown actions are unlimited.
func LimitFor(plan, action string) int {
	limits, ok := plans[plan]
	if !ok {
		limits = plans["free"]
	}

	limit, ok := limits[action]
	if !ok {
		return -1
	}

	return limit
}
