// Package extract holds the slot-filling extractors for the chat
// orchestrator. Every extractor is a pure function over raw utterance
// text: no side effects, no errors, zero values on no-match, so they
// are safe to call speculatively and discard.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
)

var (
	routeCnRe = regexp.MustCompile(`从(?P<from>[^到去，,。]{1,20})(到|去)(?P<to>[^，,。]{1,20})`)
	routeEnRe = regexp.MustCompile(`(?i)from\s+(?P<from>[^,.]{1,30})\s+to\s+(?P<to>[^,.\n]{1,30})`)

	routeLooseEnRe  = regexp.MustCompile(`(?i)(?P<from>.+?)\s+to\s+(?P<to>.+)`)
	routeLooseSymRe = regexp.MustCompile(`(?i)(?P<from>[^，,。]{1,30}?)\s*(到|->|→|—)\s*(?P<to>[^，,。]{1,30})`)

	passengersCnRe = regexp.MustCompile(`(?P<n>[1-8])\s*(人|位)`)
	passengersEnRe = regexp.MustCompile(`(?i)(?P<n>[1-8])\s*(people|person|passenger[s]?)`)
	singleDigitRe  = regexp.MustCompile(`([1-8])`)

	departAtRe      = regexp.MustCompile(`(\d{4}[-/]\d{2}[-/]\d{2}[T\s]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:\d{2})?)`)
	departAtShortRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)

	userIDRe = regexp.MustCompile(`\b(u_\d{3,})\b`)

	kvSplitRe = regexp.MustCompile(`[,，\n\r]\s*`)

	nicknameRe = regexp.MustCompile(`nickname\s*=\s*(?P<val>[^，,。\s]{1,30})`)
	emailRe    = regexp.MustCompile(`email\s*=\s*(?P<val>[^\s，,。]{1,50})`)
	phoneRe    = regexp.MustCompile(`phone\s*=\s*(?P<val>[^\s，,。]{1,20})`)
	facultyRe  = regexp.MustCompile(`faculty\s*=\s*(?P<val>[^，,。\s]{1,30})`)
)

// Route extracts an explicit origin/destination pair: "从A到B", "从A去B"
// or "from A to B". Captures are length-bounded so trailing clauses do
// not get swallowed.
func Route(text string) (from, to string, ok bool) {
	if m := routeCnRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[3]), true
	}
	if m := routeEnRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// RouteLoose accepts bare "A to B" and symbol separators (到, ->, →, —).
// Only safe where a route is already expected, e.g. form input.
func RouteLoose(text string) (from, to string, ok bool) {
	t := strings.TrimSpace(text)
	if m := routeLooseEnRe.FindStringSubmatch(t); m != nil {
		from, to = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if from != "" && to != "" {
			return from, to, true
		}
	}
	if m := routeLooseSymRe.FindStringSubmatch(t); m != nil {
		from, to = strings.TrimSpace(m[1]), strings.TrimSpace(m[3])
		if from != "" && to != "" {
			return from, to, true
		}
	}
	return "", "", false
}

// Passengers extracts a passenger count from an utterance: "2人", "2位",
// "2 people", "1 person", "3 passengers".
func Passengers(text string) (int, bool) {
	t := strutil.NormalizeDigits(text)
	if m := passengersCnRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := passengersEnRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// PassengerCount parses a bare form value like "2", "2人" or a
// full-width "２". Any digit in the 1-8 range counts.
func PassengerCount(raw string) (int, bool) {
	s := strutil.NormalizeDigits(strings.TrimSpace(raw))
	if m := singleDigitRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// DepartAt finds a YYYY-MM-DD[T|space]HH:MM[:SS][tz] timestamp and
// returns it normalized. No timezone inference is done.
func DepartAt(text string) (string, bool) {
	if m := departAtRe.FindStringSubmatch(text); m != nil {
		return NormalizeDepartAt(m[1]), true
	}
	return "", false
}

// NormalizeDepartAt canonicalizes separators: '/' becomes '-', the
// date/time space becomes 'T', and seconds are appended when omitted.
func NormalizeDepartAt(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", "-")
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	if departAtShortRe.MatchString(s) {
		s += ":00"
	}
	return s
}

// KeyValuePairs parses "k=v, a=b" form input into a map. Splits on
// commas (ASCII and full-width) and newlines, then on the first '='.
// Values keep their case; surrounding double quotes are stripped.
func KeyValuePairs(text string) map[string]string {
	out := map[string]string{}
	for _, part := range kvSplitRe.Split(text, -1) {
		idx := strings.Index(part, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(part[:idx])
		val := strings.TrimSpace(part[idx+1:])
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) && len(val) >= 2 {
			val = val[1 : len(val)-1]
		}
		if key != "" {
			out[key] = val
		}
	}
	return out
}

// UserID extracts a u_NNN user reference from the utterance, used to
// detect requests that target another user's profile.
func UserID(text string) (string, bool) {
	if m := userIDRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// ProfilePatch is a partial profile update pulled out of free text.
// Empty fields were not mentioned.
type ProfilePatch struct {
	Nickname string `json:"nickname,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Faculty  string `json:"faculty,omitempty"`
}

// HasAny reports whether at least one field was extracted.
func (p ProfilePatch) HasAny() bool {
	return p.Nickname != "" || p.Email != "" || p.Phone != "" || p.Faculty != ""
}

// Profile extracts key=value profile fields, each with its own bounded
// character class so trailing punctuation is not swallowed.
func Profile(text string) ProfilePatch {
	var patch ProfilePatch
	if m := nicknameRe.FindStringSubmatch(text); m != nil {
		patch.Nickname = m[1]
	}
	if m := emailRe.FindStringSubmatch(text); m != nil {
		patch.Email = m[1]
	}
	if m := phoneRe.FindStringSubmatch(text); m != nil {
		patch.Phone = m[1]
	}
	if m := facultyRe.FindStringSubmatch(text); m != nil {
		patch.Faculty = m[1]
	}
	return patch
}
