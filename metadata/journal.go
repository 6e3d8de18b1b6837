package metadata

import (
	"slices"

	"github.com/syssam/metamodel/diagnostics"
)

// journal collects the inverse of every mutation made during a change, and
// the diagnostics events to log once the change commits.
type journal struct {
	undo   []func()
	events []func(*diagnostics.Logger)
}

// change runs fn as a single change of the model. When fn fails, every
// mutation it made is reverted in reverse order and its events are dropped.
// Changes nest: events are logged only when the outermost change succeeds.
func (m *Model) change(fn func() error) error {
	j := m.journal
	outer := j == nil
	if outer {
		j = &journal{}
		m.journal = j
		defer func() { m.journal = nil }()
	}
	undoMark, eventMark := len(j.undo), len(j.events)
	if err := fn(); err != nil {
		for i := len(j.undo) - 1; i >= undoMark; i-- {
			j.undo[i]()
		}
		j.undo = j.undo[:undoMark]
		j.events = j.events[:eventMark]
		return err
	}
	if outer {
		for _, event := range j.events {
			event(m.logger)
		}
	}
	return nil
}

func (m *Model) record(undo func()) {
	if m.journal != nil {
		m.journal.undo = append(m.journal.undo, undo)
	}
}

// emit logs event now, or when the running change commits.
func (m *Model) emit(event func(*diagnostics.Logger)) {
	if m.journal != nil {
		m.journal.events = append(m.journal.events, event)
		return
	}
	event(m.logger)
}

func assign[T any](m *Model, field *T, v T) {
	old := *field
	*field = v
	m.record(func() { *field = old })
}

func appendTo[T comparable](m *Model, s *[]T, v T) {
	*s = append(*s, v)
	m.record(func() {
		*s = slices.DeleteFunc(*s, func(o T) bool { return o == v })
	})
}

// removeFrom deletes v from *s, restoring it at the same position on undo.
func removeFrom[T comparable](m *Model, s *[]T, v T) {
	i := slices.Index(*s, v)
	if i < 0 {
		return
	}
	*s = slices.Delete(*s, i, i+1)
	m.record(func() { *s = slices.Insert(*s, i, v) })
}

func setEntry[K comparable, V any](m *Model, entries map[K]V, k K, v V) {
	old, had := entries[k]
	entries[k] = v
	m.record(func() {
		if had {
			entries[k] = old
		} else {
			delete(entries, k)
		}
	})
}

func deleteEntry[K comparable, V any](m *Model, entries map[K]V, k K) {
	old, had := entries[k]
	if !had {
		return
	}
	delete(entries, k)
	m.record(func() { entries[k] = old })
}
