package stats

// NewStore returns an empty, current-version store.
func NewStore() *Store {
	return &Store{
		Version: DocumentVersion,
		Recent:  []Event{},
		Daily:   map[string]Aggregate{},
		Monthly: map[string]Aggregate{},
	}
}

// Normalize fills nil collections so callers can write without nil checks.
func (s *Store) Normalize() {
	if s.Version == 0 {
		s.Version = DocumentVersion
	}
	if s.Recent == nil {
		s.Recent = []Event{}
	}
	if s.Daily == nil {
		s.Daily = map[string]Aggregate{}
	}
	if s.Monthly == nil {
		s.Monthly = map[string]Aggregate{}
	}
}

// Append adds a new event to the recent tier and bumps the lifetime summary
// in the same step.
func (s *Store) Append(e Event) {
	s.Normalize()
	s.Recent = append(s.Recent, e)
	s.Summary.Record(e)
}

// Record adds one event to the lifetime totals.
func (sum *Summary) Record(e Event) {
	sum.TotalCompressions++
	sum.TotalOriginalSize += e.OriginalSize
	sum.TotalCompressedSize += e.CompressedSize
	sum.TotalSaved += e.SavedAmount
}

// Clone returns a deep copy.
func (s *Store) Clone() *Store {
	out := &Store{
		Version: s.Version,
		Recent:  make([]Event, len(s.Recent)),
		Daily:   make(map[string]Aggregate, len(s.Daily)),
		Monthly: make(map[string]Aggregate, len(s.Monthly)),
		Summary: s.Summary,
	}
	copy(out.Recent, s.Recent)
	for k, v := range s.Daily {
		out.Daily[k] = v.Clone()
	}
	for k, v := range s.Monthly {
		out.Monthly[k] = v.Clone()
	}
	if s.LastCompaction != nil {
		ts := *s.LastCompaction
		out.LastCompaction = &ts
	}
	return out
}

// Totals sums counts and token sizes across all three tiers.
func (s *Store) Totals() Totals {
	var t Totals
	for _, e := range s.Recent {
		t.Count++
		t.OriginalSize += e.OriginalSize
		t.CompressedSize += e.CompressedSize
		t.SavedAmount += e.SavedAmount
	}
	for _, agg := range s.Daily {
		t.add(agg)
	}
	for _, agg := range s.Monthly {
		t.add(agg)
	}
	return t
}

func (t *Totals) add(agg Aggregate) {
	t.Count += agg.Count
	t.OriginalSize += agg.OriginalSize
	t.CompressedSize += agg.CompressedSize
	t.SavedAmount += agg.SavedAmount
}

// SummaryFromEvents computes lifetime totals from a flat event list.
func SummaryFromEvents(events []Event) Summary {
	var sum Summary
	for _, e := range events {
		sum.Record(e)
	}
	return sum
}
