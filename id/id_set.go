package id

import "sort"

// clockRange is a half-open [Start, End) span of clock values.
type clockRange struct {
	Start, End Clock
}

func (r clockRange) isEmpty() bool {
	return r.Start >= r.End
}

func (r clockRange) contains(c Clock) bool {
	return c >= r.Start && c < r.End
}

func (r clockRange) overlapsOrTouches(o clockRange) bool {
	return !(r.Start > o.End || o.Start > r.End)
}

// IDSet is a per-client collection of squashed clock ranges: the tombstone
// / delete-set representation of spec.md §3.6. Ranges belonging to the
// same client are kept sorted and merged so there is exactly one range per
// contiguous run of deleted clocks.
//
// Grounded on original_source/src/id_set.rs's IDSet/IDRange, simplified
// from the Rust's Continuous/Fragmented enum split (an allocation
// optimization) to a single []clockRange per client, since Go's slice
// append amortization makes that distinction unnecessary here.
type IDSet struct {
	ranges map[ClientID][]clockRange
}

// NewIDSet returns an empty delete set.
func NewIDSet() *IDSet {
	return &IDSet{ranges: make(map[ClientID][]clockRange)}
}

// Insert records [id.Clock, id.Clock+length) as deleted for id.Client,
// merging with any adjacent or overlapping range.
func (s *IDSet) Insert(start ID, length Clock) {
	if length == 0 {
		return
	}
	r := clockRange{Start: start.Clock, End: start.Clock + length}
	s.ranges[start.Client] = insertSquashed(s.ranges[start.Client], r)
}

func insertSquashed(existing []clockRange, r clockRange) []clockRange {
	existing = append(existing, r)
	sort.Slice(existing, func(i, j int) bool { return existing[i].Start < existing[j].Start })
	out := existing[:0]
	for _, cur := range existing {
		if len(out) > 0 && out[len(out)-1].overlapsOrTouches(cur) {
			last := &out[len(out)-1]
			if cur.Start < last.Start {
				last.Start = cur.Start
			}
			if cur.End > last.End {
				last.End = cur.End
			}
			continue
		}
		out = append(out, cur)
	}
	return out
}

// Contains reports whether the given ID falls inside a recorded deleted
// range.
func (s *IDSet) Contains(target ID) bool {
	for _, r := range s.ranges[target.Client] {
		if r.contains(target.Clock) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set records no deletions.
func (s *IDSet) IsEmpty() bool {
	for _, rs := range s.ranges {
		if len(rs) > 0 {
			return false
		}
	}
	return true
}

// Merge folds other into s, squashing the combined ranges per client.
func (s *IDSet) Merge(other *IDSet) {
	if other == nil {
		return
	}
	for client, rs := range other.ranges {
		for _, r := range rs {
			s.ranges[client] = insertSquashed(s.ranges[client], r)
		}
	}
}

// Clients returns the clients with at least one recorded range.
func (s *IDSet) Clients() []ClientID {
	out := make([]ClientID, 0, len(s.ranges))
	for c, rs := range s.ranges {
		if len(rs) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Ranges returns the squashed, sorted ranges recorded for client, as
// (start ID, length) pairs.
func (s *IDSet) Ranges(client ClientID) []struct {
	Start  ID
	Length Clock
} {
	rs := s.ranges[client]
	out := make([]struct {
		Start  ID
		Length Clock
	}, 0, len(rs))
	for _, r := range rs {
		out = append(out, struct {
			Start  ID
			Length Clock
		}{Start: ID{Client: client, Clock: r.Start}, Length: r.End - r.Start})
	}
	return out
}
