package coverage

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"martianoff/galamatch/internal/pattern"
	"martianoff/galamatch/internal/types"
)

// Space is the set of inputs not yet handled by earlier arms.
type Space interface {
	// apply narrows the space by one arm and reports whether the arm can
	// match any remaining input. Guarded arms never narrow the space.
	apply(p pattern.Pattern, guarded bool) bool
	// exhaustive reports whether every non-absent input has been handled.
	exhaustive() bool
	// missing lists remaining non-absent inputs, when they are enumerable.
	missing() []string
}

// enumSpace holds every remaining point explicitly, in domain order.
type enumSpace struct {
	e      *Engine
	input  types.Type
	points *linkedhashmap.Map // string -> atom
}

func newEnumSpace(e *Engine, input types.Type, dom []atom) *enumSpace {
	points := linkedhashmap.New()
	for _, a := range dom {
		points.Put(a.String(), a)
	}
	return &enumSpace{e: e, input: input, points: points}
}

func (s *enumSpace) apply(p pattern.Pattern, guarded bool) bool {
	s.refine(p)
	matched := false
	var covered []any
	s.points.Each(func(key, value any) {
		switch s.e.rel(p, value.(atom), s.input) {
		case relCovers:
			matched = true
			covered = append(covered, key)
		case relPartial:
			matched = true
		}
	})
	if !guarded {
		for _, key := range covered {
			s.points.Remove(key)
		}
	}
	return matched
}

// refine replaces the open point with the enumerated outputs of the
// arm's decomposition method, when they fit the enumeration cap.
func (s *enumSpace) refine(p pattern.Pattern) {
	key := anyAtom.String()
	if _, ok := s.points.Get(key); !ok {
		return
	}
	d := methodDecomposition(p)
	if d == nil {
		return
	}
	parts, ok := s.e.split(d, s.e.opts.MaxPoints-s.points.Size()+1)
	if !ok {
		return
	}
	refined := linkedhashmap.New()
	s.points.Each(func(k, v any) {
		if k != key {
			refined.Put(k, v)
			return
		}
		for _, a := range parts {
			refined.Put(a.String(), a)
		}
	})
	s.points = refined
}

func (s *enumSpace) exhaustive() bool {
	return len(s.missing()) == 0
}

func (s *enumSpace) missing() []string {
	var out []string
	s.points.Each(func(key, value any) {
		if !value.(atom).hasNull() {
			out = append(out, key.(string))
		}
	})
	return out
}

// flagSpace tracks only whether some non-absent input and whether the
// absent input remain. It is used when the domain is too large to
// enumerate.
type flagSpace struct {
	e          *Engine
	input      types.Type
	nonAbsent  bool
	absentLeft bool
}

func newFlagSpace(e *Engine, input types.Type) *flagSpace {
	return &flagSpace{
		e:          e,
		input:      input,
		nonAbsent:  true,
		absentLeft: e.query.IsAbsentable(input),
	}
}

func (s *flagSpace) apply(p pattern.Pattern, guarded bool) bool {
	matched := false
	if s.nonAbsent {
		r := s.e.rel(p, anyAtom, s.input)
		matched = r != relNone
		if r == relCovers && !guarded {
			s.nonAbsent = false
		}
	}
	if s.absentLeft {
		r := s.e.rel(p, nullAtom, s.input)
		matched = matched || r != relNone
		if r == relCovers && !guarded {
			s.absentLeft = false
		}
	}
	return matched
}

func (s *flagSpace) exhaustive() bool {
	return !s.nonAbsent
}

func (s *flagSpace) missing() []string {
	if s.nonAbsent {
		return []string{"_"}
	}
	return nil
}
