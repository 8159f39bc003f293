package domain

import "time"

type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotMidday    TimeSlot = "midday"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

// TimeSlotForHour buckets an hour of day: [5,12) morning, [12,15) midday,
// [15,18) afternoon, everything else evening.
func TimeSlotForHour(hour int) TimeSlot {
	switch {
	case hour >= 5 && hour < 12:
		return TimeSlotMorning
	case hour >= 12 && hour < 15:
		return TimeSlotMidday
	case hour >= 15 && hour < 18:
		return TimeSlotAfternoon
	default:
		return TimeSlotEvening
	}
}

// TimeSlotFor derives the slot of a capture time in loc. A nil time is evening.
func TimeSlotFor(t *time.Time, loc *time.Location) TimeSlot {
	if t == nil {
		return TimeSlotEvening
	}
	if loc == nil {
		loc = time.UTC
	}
	return TimeSlotForHour(t.In(loc).Hour())
}
