package expiry

import (
	"regexp"
	"strconv"

	productdomain "github.com/smallbiznis/jobboard/internal/product/domain"
)

const ExtendPostAddon = "extend-post"

var planDurationDays = map[string]int{
	"basic":     15,
	"standard":  30,
	"featured":  30,
	"unlimited": 90,
}

var descriptionDays = regexp.MustCompile(`(?i)\b(\d+)(?:-| )day`)

// DurationForPlan returns the listing length in days for an active plan.
// Known codes use the fixed table, other plans read "<n>-day" or "<n> day"
// from their description, and everything else falls back to defaultDays.
func DurationForPlan(plan *productdomain.Product, defaultDays int) int {
	if plan == nil {
		return defaultDays
	}
	if days, ok := planDurationDays[plan.Code]; ok {
		return days
	}
	if days, ok := parseDescriptionDays(plan.Description); ok {
		return days
	}
	return defaultDays
}

func parseDescriptionDays(description string) (int, bool) {
	match := descriptionDays.FindStringSubmatch(description)
	if len(match) < 2 {
		return 0, false
	}
	days, err := strconv.Atoi(match[1])
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}
