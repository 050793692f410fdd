// Package services provides business logic and orchestration services.
//
// This file implements the recurrence engine. Each frequency has a Stepper
// strategy that advances an occurrence date by exactly one period;
// DueOccurrences walks the steps between a schedule's checkpoint and a
// reference date and materializes the transactions that are due. The engine
// is pure: it never touches storage, and repeated calls with the same inputs
// return the same occurrences.
package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// AutoGeneratedSuffix marks transactions materialized from a recurring
// schedule. The recurring id on the instance is the authoritative link; the
// suffix only makes the origin visible in listings.
const AutoGeneratedSuffix = "(recurring)"

// Stepper is the strategy interface for advancing an occurrence date by one
// period of a given frequency.
type Stepper interface {
	// Step returns the next occurrence date after from. The input is assumed
	// to be truncated to a UTC calendar day; the output is as well.
	Step(from time.Time) time.Time
}

// DailyStepper advances by one calendar day.
type DailyStepper struct{}

func (DailyStepper) Step(from time.Time) time.Time {
	return from.AddDate(0, 0, 1)
}

// WeeklyStepper advances by seven calendar days.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(from time.Time) time.Time {
	return from.AddDate(0, 0, 7)
}

// MonthlyStepper advances by one calendar month, clamping to the last valid
// day of the target month (Jan 31 steps to Feb 29/28). The clamp applies per
// step from the previous occurrence, so a schedule anchored on the 31st
// settles on the 28th/29th after crossing February.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(from time.Time) time.Time {
	return addMonthsClamped(from, 1)
}

// YearlyStepper advances by one calendar year, clamping Feb 29 to Feb 28 on
// non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Step(from time.Time) time.Time {
	return addMonthsClamped(from, 12)
}

// addMonthsClamped adds months to a day-truncated date without the overflow
// behavior of time.AddDate: a day past the end of the target month lands on
// the month's last day instead of spilling into the next month.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// steppers maps frequencies to their corresponding strategies.
var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper for a frequency, or an error for an unknown
// frequency tag.
func GetStepper(freq core.Frequency) (Stepper, error) {
	s, ok := steppers[freq]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", freq)
	}
	return s, nil
}

// NextOccurrence returns the next occurrence date after from for the given
// frequency. For a valid frequency it never fails; an unknown frequency
// returns from unchanged (callers validate at the boundary).
func NextOccurrence(freq core.Frequency, from time.Time) time.Time {
	s, err := GetStepper(freq)
	if err != nil {
		return from
	}
	return s.Step(from)
}

// DueOccurrences computes, in chronological order, the transactions a
// schedule should have materialized as of now.
//
// The anchor is the last generated checkpoint when present, otherwise the
// start date; occurrences are emitted strictly after the anchor, up to and
// including now and the end date. Inactive schedules produce nothing. A
// lapsed schedule (now past its end date) also produces nothing, including
// any never-generated backlog inside the window.
//
// The caller owns persistence: generated instances and the advanced
// checkpoint must be committed together per schedule, or the next pass will
// re-emit the same occurrences.
func DueOccurrences(s core.RecurringSchedule, now time.Time) ([]core.Transaction, error) {
	if !s.IsActive {
		return nil, nil
	}
	step, err := GetStepper(s.Frequency)
	if err != nil {
		return nil, err
	}

	today := core.DateOf(now).Time
	start := core.DateOf(s.StartDate.Time).Time

	var end time.Time
	if !s.EndDate.IsEmpty() {
		end = core.DateOf(s.EndDate.Time).Time
		if today.After(end) {
			// Schedule has lapsed: nothing is generated, even for in-window
			// days that never had a pass run over them.
			return nil, nil
		}
	}

	anchor := start
	if !s.LastGenerated.IsEmpty() {
		anchor = core.DateOf(s.LastGenerated.Time).Time
	}

	var due []core.Transaction
	for {
		candidate := step.Step(anchor)
		if candidate.After(today) {
			break
		}
		if candidate.Before(start) {
			// Guards against a checkpoint behind the start date; keeps the
			// loop strictly advancing.
			anchor = candidate
			continue
		}
		if !end.IsZero() && candidate.After(end) {
			break
		}
		due = append(due, instanceFor(s, candidate))
		anchor = candidate
	}
	return due, nil
}

func instanceFor(s core.RecurringSchedule, date time.Time) core.Transaction {
	desc := s.Description
	if desc != "" {
		desc += " "
	}
	return core.Transaction{
		Type:        s.Type,
		Date:        core.Date{Time: date},
		Description: desc + AutoGeneratedSuffix,
		Amount:      s.Amount,
		Category:    s.Category,
		RecurringID: s.ID,
	}
}
