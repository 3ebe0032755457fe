package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		text     string
		from, to string
		ok       bool
	}{
		{"from COM3 to UTown", "COM3", "UTown", true},
		{"Book a trip from Kent Ridge MRT to PGP please", "Kent Ridge MRT", "PGP please", true},
		{"从宿舍到图书馆", "宿舍", "图书馆", true},
		{"从COM3去UTown", "COM3", "UTown", true},
		{"帮我订从宿舍到机场，2人", "宿舍", "机场", true},
		{"COM3 to UTown", "", "", false},
		{"I want a bus", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		from, to, ok := Route(tt.text)
		require.Equal(t, tt.ok, ok, "text=%q", tt.text)
		require.Equal(t, tt.from, from, "text=%q", tt.text)
		require.Equal(t, tt.to, to, "text=%q", tt.text)
	}
}

func TestRouteLoose(t *testing.T) {
	tests := []struct {
		text     string
		from, to string
		ok       bool
	}{
		{"COM3 to UTown", "COM3", "UTown", true},
		{"NUS to Marina Bay", "NUS", "Marina Bay", true},
		{"宿舍到图书馆", "宿舍", "图书馆", true},
		{"COM3->UTown", "COM3", "UTown", true},
		{"COM3 → UTown", "COM3", "UTown", true},
		{"UTown", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		from, to, ok := RouteLoose(tt.text)
		require.Equal(t, tt.ok, ok, "text=%q", tt.text)
		require.Equal(t, tt.from, from, "text=%q", tt.text)
		require.Equal(t, tt.to, to, "text=%q", tt.text)
	}
}

func TestPassengers(t *testing.T) {
	tests := []struct {
		text string
		n    int
		ok   bool
	}{
		{"2人", 2, true},
		{"3 位", 3, true},
		{"2 people", 2, true},
		{"1 person", 1, true},
		{"4 passengers", 4, true},
		{"２人", 2, true},
		{"9 people", 0, false},
		{"a few of us", 0, false},
	}
	for _, tt := range tests {
		n, ok := Passengers(tt.text)
		require.Equal(t, tt.ok, ok, "text=%q", tt.text)
		require.Equal(t, tt.n, n, "text=%q", tt.text)
	}
}

func TestPassengerCount(t *testing.T) {
	tests := []struct {
		raw string
		n   int
		ok  bool
	}{
		{"2", 2, true},
		{" 5人 ", 5, true},
		{"２", 2, true},
		{"9", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		n, ok := PassengerCount(tt.raw)
		require.Equal(t, tt.ok, ok, "raw=%q", tt.raw)
		require.Equal(t, tt.n, n, "raw=%q", tt.raw)
	}
}

func TestDepartAt(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"leave at 2026-09-01T08:30", "2026-09-01T08:30:00", true},
		{"2026/09/01 08:30 works", "2026-09-01T08:30:00", true},
		{"2026-09-01T08:30:15", "2026-09-01T08:30:15", true},
		{"2026-09-01T08:30:00Z", "2026-09-01T08:30:00Z", true},
		{"2026-09-01T08:30+08:00", "2026-09-01T08:30+08:00", true},
		{"tomorrow morning", "", false},
	}
	for _, tt := range tests {
		got, ok := DepartAt(tt.text)
		require.Equal(t, tt.ok, ok, "text=%q", tt.text)
		require.Equal(t, tt.want, got, "text=%q", tt.text)
	}
}

func TestKeyValuePairs(t *testing.T) {
	got := KeyValuePairs("route=COM3 to UTown, departAt=2026-09-01T08:30, passengers=\"2\"")
	require.Equal(t, map[string]string{
		"route":      "COM3 to UTown",
		"departAt":   "2026-09-01T08:30",
		"passengers": "2",
	}, got)

	got = KeyValuePairs("nickname=Alex，faculty=SoC\nphone=91234567")
	require.Equal(t, map[string]string{
		"nickname": "Alex",
		"faculty":  "SoC",
		"phone":    "91234567",
	}, got)

	require.Empty(t, KeyValuePairs("no pairs here"))
	require.Empty(t, KeyValuePairs("=orphan"))
}

func TestUserID(t *testing.T) {
	id, ok := UserID("please update u_1024 nickname=Bob")
	require.True(t, ok)
	require.Equal(t, "u_1024", id)

	_, ok = UserID("u_12 is too short")
	require.False(t, ok)

	_, ok = UserID("no reference")
	require.False(t, ok)
}

func TestProfile(t *testing.T) {
	patch := Profile("nickname=Alex email=alex@u.nus.edu phone=91234567 faculty=SoC")
	require.Equal(t, ProfilePatch{
		Nickname: "Alex",
		Email:    "alex@u.nus.edu",
		Phone:    "91234567",
		Faculty:  "SoC",
	}, patch)
	require.True(t, patch.HasAny())

	patch = Profile("改昵称 nickname=小明，其他不变")
	require.Equal(t, "小明", patch.Nickname)
	require.True(t, patch.HasAny())

	require.False(t, Profile("nothing to change").HasAny())
}
