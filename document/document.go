package document

import (
	"errors"
	"fmt"
	"sort"
)

// ErrRegionClaimed is returned by Claim when the requested span overlaps a
// region another parser already claimed.
var ErrRegionClaimed = errors.New("region already claimed")

// Region is one parsed unit of a document.
type Region struct {
	// Start and End are byte offsets into the document source, [Start, End).
	Start int
	End   int

	// StartLine and EndLine are the 1-based, inclusive lines the region spans.
	StartLine int
	EndLine   int

	// Source is the raw text of the region.
	Source string

	// Parsed is the payload of the parser that claimed the region, or nil for
	// unclaimed text.
	Parsed any

	// Evaluated holds whatever the owning extension recorded while evaluating
	// the region.
	Evaluated any
}

// Claimed reports whether a parser owns the region.
func (r *Region) Claimed() bool {
	return r.Parsed != nil
}

// Document is an ordered sequence of regions over a source text.
type Document struct {
	// Name identifies the document in errors and reports, usually a path.
	Name string

	// Source is the full document text.
	Source string

	regions    []*Region
	lineStarts []int
}

// New creates a document whose only region is the unclaimed source.
func New(name, source string) *Document {
	d := &Document{
		Name:       name,
		Source:     source,
		lineStarts: lineStarts(source),
	}
	if len(source) > 0 {
		d.regions = []*Region{d.newRegion(0, len(source), nil)}
	}
	return d
}

// Regions returns the regions in source order.
func (d *Document) Regions() []*Region {
	return append([]*Region(nil), d.regions...)
}

// LineAt returns the 1-based line containing the byte offset.
func (d *Document) LineAt(offset int) int {
	return sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	})
}

// Claim assigns the span [start, end) to a parser, splitting the unclaimed
// region that contains it. It returns ErrRegionClaimed when any part of the
// span is already owned.
func (d *Document) Claim(start, end int, parsed any) (*Region, error) {
	if parsed == nil {
		return nil, fmt.Errorf("document: claim %s:%d needs a parsed payload", d.Name, d.LineAt(start))
	}
	if start < 0 || end > len(d.Source) || start >= end {
		return nil, fmt.Errorf("document: invalid span [%d, %d) in %s", start, end, d.Name)
	}

	for i, r := range d.regions {
		if r.Claimed() || start < r.Start || end > r.End {
			continue
		}
		split := make([]*Region, 0, 3)
		if start > r.Start {
			split = append(split, d.newRegion(r.Start, start, nil))
		}
		claimed := d.newRegion(start, end, parsed)
		split = append(split, claimed)
		if end < r.End {
			split = append(split, d.newRegion(end, r.End, nil))
		}

		regions := make([]*Region, 0, len(d.regions)+len(split)-1)
		regions = append(regions, d.regions[:i]...)
		regions = append(regions, split...)
		regions = append(regions, d.regions[i+1:]...)
		d.regions = regions
		return claimed, nil
	}
	return nil, fmt.Errorf("%w: %s:%d", ErrRegionClaimed, d.Name, d.LineAt(start))
}

// Previous returns the region immediately before r, or nil.
func (d *Document) Previous(r *Region) *Region {
	for i, cur := range d.regions {
		if cur == r && i > 0 {
			return d.regions[i-1]
		}
	}
	return nil
}

func (d *Document) newRegion(start, end int, parsed any) *Region {
	return &Region{
		Start:     start,
		End:       end,
		StartLine: d.LineAt(start),
		EndLine:   d.LineAt(end - 1),
		Source:    d.Source[start:end],
		Parsed:    parsed,
	}
}

func lineStarts(s string) []int {
	starts := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i+1 < len(s) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
