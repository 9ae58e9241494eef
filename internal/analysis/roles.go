package analysis

import "strings"

// Role is a commercial role a column can play, matched by name keywords.
type Role string

const (
	RolePrice     Role = "price"
	RoleVolume    Role = "volume"
	RoleDelivery  Role = "delivery"
	RoleBuyer     Role = "buyer"
	RoleGeography Role = "geography"
)

var roleKeywords = map[Role][]string{
	RolePrice:     {"price", "cost", "amount", "value", "rate", "fee", "tariff", "premium"},
	RoleVolume:    {"quantity", "volume", "units", "impression", "usage", "capacity", "load"},
	RoleDelivery:  {"delivery", "term", "duration", "lead", "window", "sla", "schedule", "date"},
	RoleBuyer:     {"buyer", "customer", "segment", "industry", "persona", "account"},
	RoleGeography: {"region", "market", "country", "state", "city", "geo"},
}

// HasRole reports whether a column name matches the role's keyword list,
// case-insensitively.
func HasRole(column string, role Role) bool {
	return containsAny(strings.ToLower(column), roleKeywords[role]...)
}

func (c *columnAccumulator) is(role Role) bool {
	return containsAny(c.lower, roleKeywords[role]...)
}

// columnsWith returns the accumulators matching a role, in column order.
func columnsWith(accs []*columnAccumulator, role Role) []*columnAccumulator {
	var out []*columnAccumulator
	for _, c := range accs {
		if c.is(role) {
			out = append(out, c)
		}
	}
	return out
}

// uniqueNames flattens accumulator groups to column names, keeping first
// occurrence order.
func uniqueNames(groups ...[]*columnAccumulator) []string {
	var names []string
	for _, g := range groups {
		for _, c := range g {
			names = append(names, c.name)
		}
	}
	return dedupe(names)
}
