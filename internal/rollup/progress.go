// Package rollup computes derived parent progress from child aims. The
// functions are pure and tolerate missing, duplicate or mistyped link rows:
// anything that is not a non-nil child at the expected level is ignored.
package rollup

import (
	"math"
	"time"

	"github.com/google/uuid"
	util "github.com/mkravets/orbita-api/internal/utils"
)

const (
	// ThresholdDays is how many fully-done calendar days complete a week.
	ThresholdDays = 5
	// ThresholdWeeks is how many done weeks complete a month.
	ThresholdWeeks = 3
)

// Child is the snapshot of a linked child aim as returned by the link
// registry.
type Child struct {
	ID     uuid.UUID `json:"id"`
	EndAt  time.Time `json:"end_at"`
	Status string    `json:"status"`
	Level  string    `json:"level"`
}

// LinkRow is one parent->child association with its child snapshot.
type LinkRow struct {
	ParentID uuid.UUID `json:"parent_id"`
	Child    *Child    `json:"child"`
}

type Progress struct {
	DoneUnits  int  `json:"done_units"`
	TotalUnits int  `json:"total_units"`
	Percent    int  `json:"progress"`
	IsComplete bool `json:"is_complete"`
}

// ComputeWeekProgress rolls day children up into week progress. Children are
// grouped by local calendar date; a date counts only when every aim on it is
// done. Done dates are capped at thresholdDays for the percentage, but
// IsComplete compares the uncapped count.
func ComputeWeekProgress(weekID uuid.UUID, links []LinkRow, thresholdDays int) Progress {
	if thresholdDays <= 0 {
		thresholdDays = ThresholdDays
	}

	children := filterChildren(weekID, links, "day")
	if len(children) == 0 {
		return Progress{DoneUnits: 0, TotalUnits: thresholdDays, Percent: 0, IsComplete: false}
	}

	byDay := make(map[string][]*Child)
	for _, c := range children {
		k := util.DayKeyLocal(c.EndAt)
		byDay[k] = append(byDay[k], c)
	}

	doneDays := 0
	for _, bucket := range byDay {
		allDone := true
		for _, c := range bucket {
			if c.Status != "done" {
				allDone = false
				break
			}
		}
		if allDone {
			doneDays++
		}
	}

	capped := doneDays
	if capped > thresholdDays {
		capped = thresholdDays
	}

	return Progress{
		DoneUnits:  capped,
		TotalUnits: thresholdDays,
		Percent:    percent(capped, thresholdDays),
		IsComplete: doneDays >= thresholdDays,
	}
}

// ComputeMonthProgress rolls week children up into month progress. Weeks are
// already discrete units, so no date grouping applies: done weeks are counted
// directly.
func ComputeMonthProgress(monthID uuid.UUID, links []LinkRow, thresholdWeeks int) Progress {
	if thresholdWeeks <= 0 {
		thresholdWeeks = ThresholdWeeks
	}

	children := filterChildren(monthID, links, "week")

	doneWeeks := 0
	for _, c := range children {
		if c.Status == "done" {
			doneWeeks++
		}
	}

	capped := doneWeeks
	if capped > thresholdWeeks {
		capped = thresholdWeeks
	}

	return Progress{
		DoneUnits:  capped,
		TotalUnits: thresholdWeeks,
		Percent:    percent(capped, thresholdWeeks),
		IsComplete: doneWeeks >= thresholdWeeks,
	}
}

func filterChildren(parentID uuid.UUID, links []LinkRow, level string) []*Child {
	var out []*Child
	for i := range links {
		r := links[i]
		if r.ParentID != parentID || r.Child == nil || r.Child.Level != level {
			continue
		}
		out = append(out, r.Child)
	}
	return out
}

func percent(done, total int) int {
	return int(math.Round(float64(done) / float64(total) * 100))
}
