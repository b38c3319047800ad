package schedule

import "time"

type SlotType string

const (
	SlotTypeWork  SlotType = "WORK"
	SlotTypeBreak SlotType = "BREAK"
)

type PresenceType string

const (
	PresenceMandatory PresenceType = "MANDATORY"
	PresenceFlexible  PresenceType = "FLEXIBLE"
)

// TimeSlot is an expected slot of a local day in minutes since midnight.
// EndMinutes <= StartMinutes means the slot ends on the following day.
type TimeSlot struct {
	SlotType     SlotType
	PresenceType PresenceType
	CountsAsWork bool
	StartMinutes int
	EndMinutes   int
}

// CrossesMidnight reports whether the slot ends on the next local day.
func (s TimeSlot) CrossesMidnight() bool {
	return s.EndMinutes <= s.StartMinutes || s.EndMinutes > 24*60
}

// EffectiveEndMinutes returns the end relative to the slot's start day.
func (s TimeSlot) EffectiveEndMinutes() int {
	if s.EndMinutes <= s.StartMinutes {
		return s.EndMinutes + 24*60
	}
	return s.EndMinutes
}

// EffectiveSchedule is the expected shape of one local day for an employee.
type EffectiveSchedule struct {
	EmployeeID string
	Date       time.Time
	ScheduleID string
	TimeSlots  []TimeSlot
}

// LastWorkSlot picks the work slot that ends latest, preferring mandatory-presence slots.
func (s EffectiveSchedule) LastWorkSlot() (TimeSlot, bool) {
	var best, bestAny TimeSlot
	found, foundAny := false, false
	for _, slot := range s.TimeSlots {
		if slot.SlotType != SlotTypeWork {
			continue
		}
		if !foundAny || slot.EffectiveEndMinutes() > bestAny.EffectiveEndMinutes() {
			bestAny, foundAny = slot, true
		}
		if slot.PresenceType == PresenceMandatory &&
			(!found || slot.EffectiveEndMinutes() > best.EffectiveEndMinutes()) {
			best, found = slot, true
		}
	}
	if found {
		return best, true
	}
	return bestAny, foundAny
}

// WorkScheduleTime is the stored per-weekday template a schedule is built from.
type WorkScheduleTime struct {
	ID                string
	WorkScheduleID    string
	DayOfWeek         int // 1=Monday, ..., 7=Sunday
	ClockInTime       time.Time
	BreakStartTime    *time.Time
	BreakEndTime      *time.Time
	ClockOutTime      time.Time
	IsNextDayCheckout bool
}

// Slots converts the template into time slots.
func (t WorkScheduleTime) Slots() []TimeSlot {
	minutes := func(v time.Time) int { return v.Hour()*60 + v.Minute() }

	end := minutes(t.ClockOutTime)
	if t.IsNextDayCheckout && end > minutes(t.ClockInTime) {
		end += 24 * 60
	}
	slots := []TimeSlot{{
		SlotType:     SlotTypeWork,
		PresenceType: PresenceMandatory,
		CountsAsWork: true,
		StartMinutes: minutes(t.ClockInTime),
		EndMinutes:   end,
	}}
	if t.BreakStartTime != nil && t.BreakEndTime != nil {
		slots = append(slots, TimeSlot{
			SlotType:     SlotTypeBreak,
			PresenceType: PresenceFlexible,
			StartMinutes: minutes(*t.BreakStartTime),
			EndMinutes:   minutes(*t.BreakEndTime),
		})
	}
	return slots
}
