package bus

import (
	"context"
	"strings"
)

const mockDefaultStop = "人民广场"

type mockStop struct {
	name     string
	arrivals []Arrival
}

// Fixed demo data. Deliberately static so demos are reproducible.
var mockStops = []mockStop{
	{"COM2", []Arrival{
		{Route: "A1", Direction: "up", EtaMinutes: 2, Status: "on_time"},
		{Route: "A1", Direction: "up", EtaMinutes: 10, Status: "on_time"},
		{Route: "D2", Direction: "down", EtaMinutes: 5, Status: "on_time"},
	}},
	{"PGP", []Arrival{
		{Route: "A1", Direction: "down", EtaMinutes: 4, Status: "on_time"},
		{Route: "A2", Direction: "up", EtaMinutes: 7, Status: "on_time"},
		{Route: "D2", Direction: "up", EtaMinutes: 3, Status: "on_time"},
	}},
	{"UTown", []Arrival{
		{Route: "D1", Direction: "up", EtaMinutes: 3, Status: "on_time"},
		{Route: "D1", Direction: "down", EtaMinutes: 15, Status: "delayed"},
		{Route: "D2", Direction: "up", EtaMinutes: 6, Status: "on_time"},
	}},
	{"KR MRT", []Arrival{
		{Route: "A1", Direction: "up", EtaMinutes: 1, Status: "arriving"},
		{Route: "A2", Direction: "down", EtaMinutes: 8, Status: "on_time"},
		{Route: "D1", Direction: "up", EtaMinutes: 12, Status: "on_time"},
	}},
	{"BIZ2", []Arrival{
		{Route: "A1", Direction: "up", EtaMinutes: 6, Status: "on_time"},
		{Route: "A2", Direction: "up", EtaMinutes: 9, Status: "on_time"},
	}},
	{"TCOMS", []Arrival{
		{Route: "A2", Direction: "down", EtaMinutes: 4, Status: "on_time"},
		{Route: "D2", Direction: "down", EtaMinutes: 11, Status: "delayed"},
	}},
	{"乌节路", []Arrival{
		{Route: "7", Direction: "up", EtaMinutes: 3, Status: "on_time"},
		{Route: "14", Direction: "up", EtaMinutes: 5, Status: "on_time"},
		{Route: "36", Direction: "down", EtaMinutes: 8, Status: "on_time"},
		{Route: "77", Direction: "up", EtaMinutes: 12, Status: "delayed"},
	}},
	{"滨海湾", []Arrival{
		{Route: "36", Direction: "up", EtaMinutes: 2, Status: "arriving"},
		{Route: "97", Direction: "down", EtaMinutes: 6, Status: "on_time"},
		{Route: "106", Direction: "up", EtaMinutes: 10, Status: "on_time"},
	}},
	{"莱佛士坊", []Arrival{
		{Route: "10", Direction: "up", EtaMinutes: 4, Status: "on_time"},
		{Route: "75", Direction: "down", EtaMinutes: 7, Status: "on_time"},
		{Route: "100", Direction: "up", EtaMinutes: 15, Status: "delayed"},
	}},
	{"牛车水", []Arrival{
		{Route: "2", Direction: "up", EtaMinutes: 5, Status: "on_time"},
		{Route: "12", Direction: "down", EtaMinutes: 8, Status: "on_time"},
		{Route: "33", Direction: "up", EtaMinutes: 3, Status: "arriving"},
	}},
	{"人民广场", []Arrival{
		{Route: "20", Direction: "up", EtaMinutes: 3, Status: "on_time"},
		{Route: "20", Direction: "up", EtaMinutes: 12, Status: "on_time"},
		{Route: "51", Direction: "down", EtaMinutes: 6, Status: "on_time"},
	}},
	{"Orchard", []Arrival{
		{Route: "7", Direction: "up", EtaMinutes: 3, Status: "on_time"},
		{Route: "14", Direction: "up", EtaMinutes: 5, Status: "on_time"},
		{Route: "36", Direction: "down", EtaMinutes: 8, Status: "on_time"},
	}},
	{"Marina Bay", []Arrival{
		{Route: "36", Direction: "up", EtaMinutes: 2, Status: "arriving"},
		{Route: "97", Direction: "down", EtaMinutes: 6, Status: "on_time"},
		{Route: "106", Direction: "up", EtaMinutes: 10, Status: "on_time"},
	}},
	{"Clementi", []Arrival{
		{Route: "96", Direction: "up", EtaMinutes: 4, Status: "on_time"},
		{Route: "165", Direction: "down", EtaMinutes: 9, Status: "on_time"},
		{Route: "7", Direction: "up", EtaMinutes: 13, Status: "on_time"},
	}},
}

// MockProvider serves canned arrival data for demo mode and tests.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) GetArrivals(_ context.Context, stopName, route string) Arrivals {
	effectiveStop := strings.TrimSpace(stopName)
	if effectiveStop == "" {
		effectiveStop = mockDefaultStop
	}

	arrivals := findMockRoutes(effectiveStop)
	arrivals = filterByRoute(arrivals, route)

	return Arrivals{StopName: effectiveStop, Arrivals: arrivals}
}

func findMockRoutes(stopName string) []Arrival {
	for _, stop := range mockStops {
		if stop.name == stopName {
			return stop.arrivals
		}
	}
	for _, stop := range mockStops {
		if strings.EqualFold(stop.name, stopName) {
			return stop.arrivals
		}
	}
	for _, stop := range mockStops {
		if strings.Contains(stop.name, stopName) || strings.Contains(stopName, stop.name) {
			return stop.arrivals
		}
	}
	return []Arrival{
		{Route: "A1", Direction: "up", EtaMinutes: 5, Status: "on_time"},
		{Route: "A2", Direction: "down", EtaMinutes: 10, Status: "on_time"},
	}
}
