// Package reconcile joins internal assignments to external assessments on their
// link code.
//
// Both sides are keyed by link code. When a code occurs more than once on a side
// the last record wins and keeps the position of the first, so pairs come out in
// internal catalog order.
package reconcile

import (
	"strings"

	"github.com/agentstation/assessmentsync/pkg/assessments"
)

// Pair is an internal assignment and the external assessment sharing its link code.
// Internal.LinkCode keeps the LMS value as stored, since it keys grade_items.idnumber.
type Pair struct {
	Internal assessments.InternalAssignment
	External assessments.ExternalAssessment
}

// LinkCode returns the shared link code without surrounding whitespace.
func (p Pair) LinkCode() string { return strings.TrimSpace(p.Internal.LinkCode) }

// Filter admits link codes into a run.
type Filter interface {
	Allow(code string) bool
}

// Stats counts the outcome of a match.
type Stats struct {
	Internal   int // internal records read
	External   int // external records read
	Ineligible int // internal records without an id or link code
	Duplicates int // records replaced by a later record with the same code
	Matched    int // pairs produced
	Unmatched  int // internal codes with no external record
	Orphans    int // external codes with no internal record
	Filtered   int // pairs dropped by the filter
}

// Result is the outcome of Match.
type Result struct {
	Pairs     []Pair
	Unmatched []assessments.InternalAssignment
	Orphans   []assessments.ExternalAssessment
	Filtered  []string
	Stats     Stats
}

// Option configures Match.
type Option func(*options)

type options struct {
	filter Filter
}

// WithFilter drops pairs whose link code the filter rejects.
func WithFilter(f Filter) Option {
	return func(o *options) { o.filter = f }
}

// keyed keeps first-seen order while letting later values replace earlier ones.
type keyed[T any] struct {
	order []string
	items map[string]T
}

func newKeyed[T any](n int) *keyed[T] {
	return &keyed[T]{items: make(map[string]T, n)}
}

func (k *keyed[T]) put(code string, v T) (replaced bool) {
	if _, ok := k.items[code]; ok {
		replaced = true
	} else {
		k.order = append(k.order, code)
	}
	k.items[code] = v
	return replaced
}

// Match pairs internal and external records by link code.
func Match(internal []assessments.InternalAssignment, external []assessments.ExternalAssessment, opts ...Option) *Result {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	res := &Result{}
	res.Stats.Internal = len(internal)
	res.Stats.External = len(external)

	byCode := newKeyed[assessments.InternalAssignment](len(internal))
	for _, a := range internal {
		if !a.Eligible() {
			res.Stats.Ineligible++
			continue
		}
		if byCode.put(strings.TrimSpace(a.LinkCode), a) {
			res.Stats.Duplicates++
		}
	}

	extByCode := newKeyed[assessments.ExternalAssessment](len(external))
	for _, e := range external {
		code := strings.TrimSpace(e.LinkCode)
		if code == "" {
			continue
		}
		if extByCode.put(code, e) {
			res.Stats.Duplicates++
		}
	}

	for _, code := range byCode.order {
		a := byCode.items[code]
		e, ok := extByCode.items[code]
		if !ok {
			res.Unmatched = append(res.Unmatched, a)
			continue
		}
		if o.filter != nil && !o.filter.Allow(code) {
			res.Filtered = append(res.Filtered, code)
			continue
		}
		res.Pairs = append(res.Pairs, Pair{Internal: a, External: e})
	}

	for _, code := range extByCode.order {
		if _, ok := byCode.items[code]; !ok {
			res.Orphans = append(res.Orphans, extByCode.items[code])
		}
	}

	res.Stats.Matched = len(res.Pairs)
	res.Stats.Unmatched = len(res.Unmatched)
	res.Stats.Orphans = len(res.Orphans)
	res.Stats.Filtered = len(res.Filtered)
	return res
}
