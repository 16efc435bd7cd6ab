package routine

import (
	"sort"

	"github.com/campus-hub/class-routine-hub/internal/domain/schedule"
	"github.com/campus-hub/class-routine-hub/pkg/wallclock"
)

// FreeRoomsBySlot computes, for one canonical slot, the rooms with no
// occupying class on each day. Independent of any selection; it reads the
// whole record set.
//
// A room counts as occupied in a slot only when at least one overlapping
// record for it has course, teacher, and section all populated. The feed
// emits rows with one of those fields missing precisely to mark a room
// standing empty, so such rows are evidence of vacancy, and a room can carry
// both kinds of row for the same slot. Occupancy therefore wins over any
// number of vacancy rows. Free rooms per day are deduplicated and sorted
// alphabetically.
func FreeRoomsBySlot(sessions []schedule.ClassSession, slot wallclock.Slot) map[string][]string {
	type rooms struct {
		occupied  map[string]bool
		mentioned map[string]bool
	}
	byDay := make(map[string]*rooms)

	for _, s := range sessions {
		if schedule.IsMissing(s.Room) {
			continue
		}
		if !wallclock.Overlaps(s.StartTime, s.EndTime, slot.Start, slot.End) {
			continue
		}
		day := s.DayKey()
		r, ok := byDay[day]
		if !ok {
			r = &rooms{occupied: make(map[string]bool), mentioned: make(map[string]bool)}
			byDay[day] = r
		}
		r.mentioned[s.Room] = true
		if s.FullyPopulated() {
			r.occupied[s.Room] = true
		}
	}

	out := make(map[string][]string, len(byDay))
	for day, r := range byDay {
		free := make([]string, 0, len(r.mentioned))
		for room := range r.mentioned {
			if !r.occupied[room] {
				free = append(free, room)
			}
		}
		sort.Strings(free)
		out[day] = free
	}
	return out
}

// FreeRoomsAllSlots computes FreeRoomsBySlot for every canonical slot, in
// slot order. The engine warms all six eagerly on every snapshot change
// because readers query several slots in quick succession.
func FreeRoomsAllSlots(sessions []schedule.ClassSession) []map[string][]string {
	slots := wallclock.Slots()
	out := make([]map[string][]string, len(slots))
	for i, slot := range slots {
		out[i] = FreeRoomsBySlot(sessions, slot)
	}
	return out
}
