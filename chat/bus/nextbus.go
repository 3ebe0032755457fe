package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
)

const nextBusBaseURL = "https://nnextbus.nus.edu.sg"

const defaultStop = "UTOWN"

type stopAlias struct {
	alias string
	code  string
}

// Aliases resolve in declaration order: codes first, then Chinese,
// then English names. Order matters for partial matching.
var stopAliases = []stopAlias{
	{"PGP", "PGP"},
	{"PGPR", "PGPR"},
	{"COM3", "COM3"},
	{"COM2", "COM3"}, // closest match
	{"UTOWN", "UTOWN"},
	{"UTown", "UTOWN"},
	{"KR-MRT", "KR-MRT"},
	{"BIZ2", "BIZ2"},
	{"TCOMS", "TCOMS"},
	{"CLB", "CLB"},
	{"YIH", "YIH"},
	{"IT", "IT"},
	{"MUSEUM", "MUSEUM"},
	{"RAFFLES", "RAFFLES"},
	{"KV", "KV"},
	{"LT13", "LT13"},
	{"AS5", "AS5"},
	{"LT27", "LT27"},
	{"S17", "S17"},
	{"UHC", "UHC"},
	{"UHALL", "UHALL"},
	{"KRB", "KRB"},
	{"BG-MRT", "BG-MRT"},
	{"OTH", "OTH"},
	{"CG", "CG"},
	{"HSSML-OPP", "HSSML-OPP"},
	{"NUSS-OPP", "NUSS-OPP"},
	{"LT13-OPP", "LT13-OPP"},
	{"YIH-OPP", "YIH-OPP"},
	{"SDE3-OPP", "SDE3-OPP"},
	{"UHC-OPP", "UHC-OPP"},
	{"UHALL-OPP", "UHALL-OPP"},
	{"KR-MRT-OPP", "KR-MRT-OPP"},
	{"TCOMS-OPP", "TCOMS-OPP"},
	{"JP-SCH-16151", "JP-SCH-16151"},

	{"王子岭", "PGP"},
	{"大学城", "UTOWN"},
	{"肯特岗地铁站", "KR-MRT"},
	{"肯特岗地铁", "KR-MRT"},
	{"商学院", "BIZ2"},
	{"中央图书馆", "CLB"},
	{"图书馆", "CLB"},
	{"博物馆", "MUSEUM"},
	{"莱佛士", "RAFFLES"},
	{"植物园地铁站", "BG-MRT"},
	{"植物园地铁", "BG-MRT"},
	{"肯特岗巴士总站", "KRB"},
	{"大学堂", "UHALL"},
	{"校医院", "UHC"},
	{"绿色学院", "CG"},

	{"Kent Ridge MRT", "KR-MRT"},
	{"Botanic Gardens MRT", "BG-MRT"},
	{"University Town", "UTOWN"},
	{"Central Library", "CLB"},
	{"Kent Ridge Bus Terminal", "KRB"},
	{"Prince George Park", "PGP"},
	{"Raffles Hall", "RAFFLES"},
	{"Kent Vale", "KV"},
	{"University Hall", "UHALL"},
	{"Information Technology", "IT"},
	{"Yusof Ishak House", "YIH"},
	{"College Green", "CG"},
}

// NextBusProvider calls the NUS NextBus ShuttleService API with Basic
// Auth. API doc: https://suibianp.github.io/nus-nextbus-new-api/
type NextBusProvider struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewNextBusProvider(p *profile.Profile) *NextBusProvider {
	return &NextBusProvider{
		baseURL:    nextBusBaseURL,
		username:   p.BusUsername,
		password:   p.BusPassword,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetArrivals resolves the stop alias, queries the API, and returns
// arrivals sorted by ETA. A bare route name in stopName queries the
// default stop filtered to that route.
func (p *NextBusProvider) GetArrivals(ctx context.Context, stopName, route string) Arrivals {
	effectiveStop := strings.TrimSpace(stopName)
	if effectiveStop == "" {
		effectiveStop = defaultStop
	}

	if IsRouteName(effectiveStop) && strings.TrimSpace(route) == "" {
		route = strings.ToUpper(effectiveStop)
		effectiveStop = defaultStop
	}

	stopCode := resolveStopCode(effectiveStop)

	arrivals, err := p.fetch(ctx, stopCode)
	if err != nil {
		slog.Warn("bus API call failed", "stop", effectiveStop, "code", stopCode, "err", err)
		return Arrivals{StopName: effectiveStop, Arrivals: []Arrival{}}
	}

	arrivals = filterByRoute(arrivals, route)

	displayStop := effectiveStop
	if strings.TrimSpace(route) != "" {
		displayStop = strings.ToUpper(route) + "@" + stopCode
	}
	return Arrivals{StopName: displayStop, Arrivals: arrivals}
}

func resolveStopCode(input string) string {
	for _, entry := range stopAliases {
		if entry.alias == input {
			return entry.code
		}
	}
	for _, entry := range stopAliases {
		if strings.EqualFold(entry.alias, input) {
			return entry.code
		}
	}
	lower := strings.ToLower(input)
	for _, entry := range stopAliases {
		aliasLower := strings.ToLower(entry.alias)
		if strings.Contains(aliasLower, lower) || strings.Contains(lower, aliasLower) {
			return entry.code
		}
	}
	return strings.ReplaceAll(strings.ToUpper(input), " ", "-")
}

type nextBusResponse struct {
	ShuttleServiceResult *struct {
		Shuttles []nextBusShuttle `json:"shuttles"`
	} `json:"ShuttleServiceResult"`
}

type nextBusShuttle struct {
	Name        string       `json:"name"`
	BusStopCode string       `json:"busstopcode"`
	Etas        []nextBusEta `json:"_etas"`

	// Legacy flat fields, used when _etas is absent.
	ArrivalTime             string `json:"arrivalTime"`
	ArrivalTimeVehPlate     string `json:"arrivalTime_veh_plate"`
	NextArrivalTime         string `json:"nextArrivalTime"`
	NextArrivalTimeVehPlate string `json:"nextArrivalTime_veh_plate"`
}

type nextBusEta struct {
	Eta   *int   `json:"eta"`
	Plate string `json:"plate"`
	Ts    string `json:"ts"`
}

func (p *NextBusProvider) fetch(ctx context.Context, stopCode string) ([]Arrival, error) {
	endpoint := p.baseURL + "/ShuttleService?busstopname=" + url.QueryEscape(stopCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build bus request")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(p.username, p.password)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call bus API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("bus API returned status %d", resp.StatusCode)
	}

	var parsed nextBusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode bus response")
	}
	if parsed.ShuttleServiceResult == nil {
		return []Arrival{}, nil
	}

	arrivals := []Arrival{}
	for _, shuttle := range parsed.ShuttleServiceResult.Shuttles {
		routeName := strings.TrimSpace(shuttle.Name)
		if routeName == "" {
			continue
		}
		direction := shuttleDirection(shuttle.BusStopCode)

		if len(shuttle.Etas) > 0 {
			for _, eta := range shuttle.Etas {
				if eta.Eta == nil || *eta.Eta < 0 {
					continue
				}
				arrivals = append(arrivals, Arrival{
					Route:         routeName,
					Direction:     direction,
					EtaMinutes:    *eta.Eta,
					Status:        etaStatus(*eta.Eta),
					Plate:         eta.Plate,
					ScheduledTime: eta.Ts,
				})
			}
			continue
		}
		arrivals = appendLegacyArrival(arrivals, routeName, direction, shuttle.ArrivalTime, shuttle.ArrivalTimeVehPlate)
		arrivals = appendLegacyArrival(arrivals, routeName, direction, shuttle.NextArrivalTime, shuttle.NextArrivalTimeVehPlate)
	}

	sort.SliceStable(arrivals, func(a, b int) bool {
		return arrivals[a].EtaMinutes < arrivals[b].EtaMinutes
	})
	return arrivals, nil
}

// shuttleDirection reads the direction suffix off a busstopcode like
// "COM3-D1-S": S means route start, E means route end.
func shuttleDirection(busStopCode string) string {
	if !strings.Contains(busStopCode, "-") {
		return "loop"
	}
	parts := strings.Split(busStopCode, "-")
	switch parts[len(parts)-1] {
	case "S":
		return "start"
	case "E":
		return "end"
	default:
		return "loop"
	}
}

func appendLegacyArrival(arrivals []Arrival, routeName, direction, etaStr, plate string) []Arrival {
	etaStr = strings.TrimSpace(etaStr)
	if etaStr == "" || etaStr == "-" {
		return arrivals
	}
	etaMinutes, err := strconv.Atoi(etaStr)
	if err != nil || etaMinutes < 0 {
		return arrivals
	}
	return append(arrivals, Arrival{
		Route:      routeName,
		Direction:  direction,
		EtaMinutes: etaMinutes,
		Status:     etaStatus(etaMinutes),
		Plate:      plate,
	})
}
