// Package bus provides campus shuttle arrival data. The real provider
// calls the NUS NextBus API; the mock provider serves fixed data for
// demos and tests. Both degrade to an empty arrival list, never an
// error, so a flaky transit API cannot break a chat turn.
package bus

import (
	"context"
	"strings"
)

// Arrival is one upcoming bus at a stop.
type Arrival struct {
	Route         string `json:"route"`
	Direction     string `json:"direction"`
	EtaMinutes    int    `json:"etaMinutes"`
	Status        string `json:"status"`
	Plate         string `json:"plate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
}

// Arrivals is the answer to one stop query.
type Arrivals struct {
	StopName string    `json:"stopName"`
	Arrivals []Arrival `json:"arrivals"`
}

// Provider answers stop/route arrival queries.
type Provider interface {
	GetArrivals(ctx context.Context, stopName, route string) Arrivals
}

// Known NUS shuttle route names, used to tell routes apart from stops.
var knownRoutes = map[string]struct{}{
	"A1": {}, "A2": {}, "D1": {}, "D2": {}, "K": {}, "E": {}, "BTC": {}, "L": {},
	"A1E": {}, "A2E": {}, "D1E": {}, "D2E": {},
}

// IsRouteName reports whether token looks like a shuttle route name.
func IsRouteName(token string) bool {
	_, ok := knownRoutes[strings.ToUpper(strings.TrimSpace(token))]
	return ok
}

// etaStatus buckets an ETA into arriving / on_time / scheduled.
func etaStatus(etaMinutes int) string {
	switch {
	case etaMinutes <= 1:
		return "arriving"
	case etaMinutes <= 8:
		return "on_time"
	default:
		return "scheduled"
	}
}

// filterByRoute keeps only arrivals on the given route, unless that
// would leave nothing to show.
func filterByRoute(arrivals []Arrival, route string) []Arrival {
	route = strings.TrimSpace(route)
	if route == "" {
		return arrivals
	}
	var filtered []Arrival
	for _, a := range arrivals {
		if strings.EqualFold(a.Route, route) {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		return arrivals
	}
	return filtered
}
