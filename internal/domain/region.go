package domain

import (
	"strings"
	"time"
)

// Region is one of the three national lottery zones. The numeric values are
// used to index per-region state tables, so they must stay dense.
type Region int

const (
	RegionSouth Region = iota
	RegionCentral
	RegionNorth

	RegionCount = 3
)

// Timezone is the named zone every schedule and draw date is computed in.
const Timezone = "Asia/Ho_Chi_Minh"

// EarliestDrawHour is the hour of the first region's draw (MN at 16:15).
// Before this hour no region can have published a result for today.
const EarliestDrawHour = 16

func (r Region) Code() string {
	switch r {
	case RegionSouth:
		return "MN"
	case RegionCentral:
		return "MT"
	case RegionNorth:
		return "MB"
	}
	return ""
}

func (r Region) Slug() string {
	return strings.ToLower(r.Code())
}

func (r Region) Label() string {
	switch r {
	case RegionSouth:
		return "Miền Nam"
	case RegionCentral:
		return "Miền Trung"
	case RegionNorth:
		return "Miền Bắc"
	}
	return ""
}

func (r Region) String() string { return r.Code() }

// OpenTime is the region's nominal draw time as exposed by the history API.
func (r Region) OpenTime() string {
	switch r {
	case RegionSouth:
		return "16:15:00"
	case RegionCentral:
		return "17:15:00"
	case RegionNorth:
		return "18:15:00"
	}
	return ""
}

// SortKey orders regions the way the upstream front end lists them.
func (r Region) SortKey() int {
	switch r {
	case RegionNorth:
		return 10
	case RegionCentral:
		return 20
	case RegionSouth:
		return 30
	}
	return 0
}

// Regions returns all regions in draw-time order (south first).
func Regions() []Region {
	return []Region{RegionSouth, RegionCentral, RegionNorth}
}

// ParseRegion accepts either the slug ("mn") or the store code ("MN").
func ParseRegion(s string) (Region, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mn":
		return RegionSouth, true
	case "mt":
		return RegionCentral, true
	case "mb":
		return RegionNorth, true
	}
	return 0, false
}

// Schedule describes one region's daily poll window. Polling starts two
// minutes before the nominal draw time and keeps ticking until a same-day
// result lands or MaxPollDuration elapses.
type Schedule struct {
	CronSpec        string
	DrawStart       string
	DrawEnd         string
	PollInterval    time.Duration
	MaxPollDuration time.Duration
}

var schedules = [RegionCount]Schedule{
	RegionSouth: {
		CronSpec:        "13 16 * * *",
		DrawStart:       "16:15",
		DrawEnd:         "16:35",
		PollInterval:    5 * time.Second,
		MaxPollDuration: 25 * time.Minute,
	},
	RegionCentral: {
		CronSpec:        "13 17 * * *",
		DrawStart:       "17:15",
		DrawEnd:         "17:35",
		PollInterval:    5 * time.Second,
		MaxPollDuration: 25 * time.Minute,
	},
	RegionNorth: {
		CronSpec:        "13 18 * * *",
		DrawStart:       "18:15",
		DrawEnd:         "18:35",
		PollInterval:    5 * time.Second,
		MaxPollDuration: 25 * time.Minute,
	},
}

func ScheduleFor(r Region) Schedule {
	if r < 0 || int(r) >= RegionCount {
		return Schedule{}
	}
	return schedules[r]
}
