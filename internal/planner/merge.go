package planner

// Merge combines an incoming document into an existing one without
// losing data. Dates only in incoming are copied verbatim; dates in
// both have their slot maps unioned, and slots in both have their
// subtask lists unioned with exact-text de-duplication. A subtask
// already known to existing keeps its Done state, whatever the
// incoming copy says. Dates only in existing are carried forward.
//
// The merge is additive only, so re-applying the same incoming
// document is a no-op and concurrent pushes converge regardless of
// arrival order. Neither input is mutated.
func Merge(existing, incoming Document) Document {
	merged := make(Document, len(existing)+len(incoming))
	for date, rec := range existing {
		merged[date] = cloneDay(rec)
	}

	for date, rec := range incoming {
		base, ok := merged[date]
		if !ok {
			merged[date] = cloneDay(rec)
			continue
		}
		merged[date] = MergeDay(base, rec)
	}

	return merged
}

// MergeDay unions source's slots into target under the same rules as
// Merge: unknown slot labels are copied in, shared labels get the
// subtasks whose text target has not seen yet. Empty slots survive the
// union. Used both server-side per date and client-side when a
// previous day's plan is imported into the current day.
func MergeDay(target, source DayRecord) DayRecord {
	out := cloneDay(target)

	for label, slot := range source.Tasks {
		have, ok := out.Tasks[label]
		if !ok {
			out.Tasks[label] = cloneSlot(slot)
			continue
		}

		known := make(map[string]struct{}, len(have.Subtasks))
		for _, sub := range have.Subtasks {
			known[sub.Text] = struct{}{}
		}
		for _, sub := range slot.Subtasks {
			if _, dup := known[sub.Text]; dup {
				continue
			}
			have.Subtasks = append(have.Subtasks, sub)
			known[sub.Text] = struct{}{}
		}
		out.Tasks[label] = have
	}

	return out
}

func cloneDay(rec DayRecord) DayRecord {
	out := DayRecord{
		Tasks:       make(map[string]TimeSlot, len(rec.Tasks)),
		LastUpdated: rec.LastUpdated,
	}
	for label, slot := range rec.Tasks {
		out.Tasks[label] = cloneSlot(slot)
	}
	return out
}

func cloneSlot(slot TimeSlot) TimeSlot {
	out := TimeSlot{UpdatedAt: slot.UpdatedAt}
	if slot.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(slot.Subtasks))
		copy(out.Subtasks, slot.Subtasks)
	}
	return out
}
