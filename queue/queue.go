// Package queue is the per-session playback sequencing policy. A Queue is not
// safe for concurrent use; its owning session serializes every call.
package queue

import (
	"errors"
	"slices"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/RobertIonutF/rmusico/track"
)

// ErrNotPlayable rejects descriptive-only records.
var ErrNotPlayable = errors.New("record has no validated stream")

type Queue struct {
	pending []track.Record
	current mo.Option[track.Record]
	loop    bool
}

func New() *Queue {
	return &Queue{current: mo.None[track.Record]()}
}

// Enqueue appends rec and returns its 1-based position among pending tracks.
func (q *Queue) Enqueue(rec track.Record) (int, error) {
	if !rec.IsPlayable() {
		return 0, ErrNotPlayable
	}
	q.pending = append(q.pending, rec)
	return len(q.pending), nil
}

// Next replays the current track when looping, otherwise advances.
func (q *Queue) Next() mo.Option[track.Record] {
	if q.loop && q.current.IsPresent() {
		return q.current
	}
	return q.advance()
}

// Skip always advances, regardless of loop.
func (q *Queue) Skip() mo.Option[track.Record] {
	return q.advance()
}

func (q *Queue) advance() mo.Option[track.Record] {
	if len(q.pending) == 0 {
		q.current = mo.None[track.Record]()
		return q.current
	}
	head := q.pending[0]
	q.pending[0] = track.Record{}
	q.pending = q.pending[1:]
	q.current = mo.Some(head)
	return q.current
}

func (q *Queue) Current() mo.Option[track.Record] { return q.current }

// Clear drops pending tracks and the current one. Loop is unchanged.
func (q *Queue) Clear() {
	q.pending = nil
	q.current = mo.None[track.Record]()
}

// Shuffle reorders pending tracks only.
func (q *Queue) Shuffle() {
	q.pending = lo.Shuffle(q.pending)
}

// Size is the number of pending tracks, not counting the current one.
func (q *Queue) Size() int { return len(q.pending) }

func (q *Queue) IsEmpty() bool {
	return len(q.pending) == 0 && q.current.IsAbsent()
}

func (q *Queue) Loop() bool { return q.loop }

func (q *Queue) SetLoop(on bool) { q.loop = on }

// Pending returns a copy of up to n pending tracks, or all of them when n <= 0.
func (q *Queue) Pending(n int) []track.Record {
	if n <= 0 || n > len(q.pending) {
		n = len(q.pending)
	}
	return slices.Clone(q.pending[:n])
}
