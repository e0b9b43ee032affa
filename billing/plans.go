package billing

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is one row of the pricing catalog. Limits of zero mean unlimited.
type Plan struct {
	ID             string
	Name           string
	LeadsPerMonth  int64
	MaxMembers     int
	MaxEndpoints   int
	PriceCentsUSD  int64
	TrialSupported bool
}

const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanGrowth  = "growth"
)

var catalog = map[string]Plan{
	PlanFree: {
		ID:             PlanFree,
		Name:           "Free",
		LeadsPerMonth:  100,
		MaxMembers:     2,
		MaxEndpoints:   1,
		PriceCentsUSD:  0,
		TrialSupported: false,
	},
	PlanStarter: {
		ID:             PlanStarter,
		Name:           "Starter",
		LeadsPerMonth:  2000,
		MaxMembers:     5,
		MaxEndpoints:   5,
		PriceCentsUSD:  2900,
		TrialSupported: true,
	},
	PlanGrowth: {
		ID:             PlanGrowth,
		Name:           "Growth",
		LeadsPerMonth:  20000,
		MaxMembers:     25,
		MaxEndpoints:   25,
		PriceCentsUSD:  9900,
		TrialSupported: true,
	},
}

func PlanByID(id string) (Plan, error) {
	plan, ok := catalog[strings.TrimSpace(strings.ToLower(id))]
	if !ok {
		return Plan{}, fmt.Errorf("billing: unknown plan %q", id)
	}
	return plan, nil
}

func Plans() []Plan {
	out := make([]Plan, 0, len(catalog))
	for _, plan := range catalog {
		out = append(out, plan)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PriceCentsUSD < out[j].PriceCentsUSD
	})
	return out
}
