package calendar

import (
	"sort"

	"stayhub/internal/domain/daterange"
)

type Source string

const (
	SourceInternalBooking Source = "internal-booking"
	SourceExternalICal    Source = "external-ical"
	SourceChannelManager  Source = "channel-manager"
)

func (s Source) String() string {
	return string(s)
}

// BlockedRange is a derived value; it is never persisted.
type BlockedRange struct {
	Range     daterange.Range
	Source    Source
	Reference string
}

func NewBlockedRange(r daterange.Range, source Source, reference string) BlockedRange {
	return BlockedRange{Range: r, Source: source, Reference: reference}
}

// Warning describes a source that could not be consulted.
// Ranges from that source are missing from the result.
type Warning struct {
	Source    Source
	Reference string
	Message   string
}

// Restrict keeps the ranges that overlap window.
func Restrict(ranges []BlockedRange, window daterange.Range) []BlockedRange {
	out := make([]BlockedRange, 0, len(ranges))
	for _, br := range ranges {
		if br.Range.Overlaps(window) {
			out = append(out, br)
		}
	}
	return out
}

// Dedupe suppresses exact duplicates (same source, reference and dates).
// Overlapping ranges from different sources are kept so callers see provenance.
func Dedupe(ranges []BlockedRange) []BlockedRange {
	type key struct {
		source    Source
		reference string
		start     int64
		end       int64
	}
	seen := make(map[key]struct{}, len(ranges))
	out := make([]BlockedRange, 0, len(ranges))
	for _, br := range ranges {
		k := key{br.Source, br.Reference, br.Range.Start().Unix(), br.Range.End().Unix()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, br)
	}
	return out
}

// Conflicts returns every blocked range overlapping candidate, ordered by start date.
func Conflicts(candidate daterange.Range, blocked []BlockedRange) []BlockedRange {
	var out []BlockedRange
	for _, br := range blocked {
		if candidate.Overlaps(br.Range) {
			out = append(out, br)
		}
	}
	Sort(out)
	return out
}

// Sort orders by dates, then source and reference, so merged results are deterministic.
func Sort(ranges []BlockedRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		a, b := ranges[i].Range, ranges[j].Range
		if !a.Start().Equal(b.Start()) {
			return a.Start().Before(b.Start())
		}
		if !a.End().Equal(b.End()) {
			return a.End().Before(b.End())
		}
		if ranges[i].Source != ranges[j].Source {
			return ranges[i].Source < ranges[j].Source
		}
		return ranges[i].Reference < ranges[j].Reference
	})
}
