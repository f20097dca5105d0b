// Package iterator merges named, per-stream time-sorted record sequences
// into one globally monotonic sequence with deterministic tie-breaking.
// It is the pull-based engine driving deterministic replay: for a fixed
// set of streams and insertion order, Next yields an identical sequence.
package iterator

import (
	"container/heap"
	"sort"

	"github.com/rs/zerolog/log"

	"vidar/internal/common"
)

// ChunkFunc supplies the next chunk of an incrementally loaded stream.
// A nil or empty return marks the stream exhausted.
type ChunkFunc func() []common.Record

type stream struct {
	name     string
	data     []common.Record
	cursor   int
	priority int
	index    int
	next     ChunkFunc
}

// entry is one heap element: the head record of a stream, keyed for
// ordering by (tsInit, priority, streamIndex).
type entry struct {
	tsInit   uint64
	priority int
	index    int
}

type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].tsInit != h[j].tsInit {
		return h[i].tsInit < h[j].tsInit
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].index < h[j].index
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Iterator merges any number of named record streams. Not safe for
// concurrent use; the replay loop owns it.
type Iterator struct {
	streams  map[string]*stream
	byIndex  map[int]*stream
	heap     entryHeap
	nextIdx  int
	nextPrio int

	// single is the fast path: with exactly one active stream the heap
	// is bypassed and the cursor advances directly.
	single *stream
}

// New creates an empty iterator.
func New() *Iterator {
	return &Iterator{
		streams: make(map[string]*stream),
		byIndex: make(map[int]*stream),
	}
}

// AddData adds or replaces a named stream. The sequence is sorted by
// ts_init (stable, preserving input order on ties). With append true the
// stream receives a positive priority and loses ties against
// earlier-added streams; with append false the priority is negative and
// the stream wins ties. Empty sequences remove any existing stream of
// that name and are otherwise skipped.
func (it *Iterator) AddData(name string, data []common.Record, appendPriority bool) {
	it.RemoveData(name)
	if len(data) == 0 {
		return
	}

	sorted := make([]common.Record, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InitNs() < sorted[j].InitNs()
	})

	it.nextPrio++
	priority := it.nextPrio
	if !appendPriority {
		priority = -priority
	}

	s := &stream{
		name:     name,
		data:     sorted,
		priority: priority,
		index:    it.nextIdx,
	}
	it.nextIdx++
	it.insert(s)
}

// InitData adds a stream loaded chunk by chunk. The first chunk is
// requested immediately; subsequent chunks are requested as the previous
// one drains. Chunks must each be ts_init-sorted and must not interleave
// in time with one another.
func (it *Iterator) InitData(name string, next ChunkFunc, appendPriority bool) {
	it.RemoveData(name)
	chunk := next()
	if len(chunk) == 0 {
		return
	}

	it.nextPrio++
	priority := it.nextPrio
	if !appendPriority {
		priority = -priority
	}

	s := &stream{
		name:     name,
		data:     chunk,
		priority: priority,
		index:    it.nextIdx,
		next:     next,
	}
	it.nextIdx++
	it.insert(s)
}

func (it *Iterator) insert(s *stream) {
	it.streams[s.name] = s
	it.byIndex[s.index] = s
	it.rebuild()
}

// RemoveData deletes all iterator state for a stream. Unknown names are
// a no-op.
func (it *Iterator) RemoveData(name string) {
	s, ok := it.streams[name]
	if !ok {
		return
	}
	delete(it.streams, name)
	delete(it.byIndex, s.index)
	it.rebuild()
}

// SetIndex repositions a stream's cursor for partial replays.
func (it *Iterator) SetIndex(name string, index int) {
	s, ok := it.streams[name]
	if !ok {
		log.Warn().Str("stream", name).Msg("set index on unknown stream")
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.data) {
		index = len(s.data)
	}
	s.cursor = index
	it.rebuild()
}

// rebuild reconstructs the heap from every stream's cursor position and
// refreshes the single-stream fast path.
func (it *Iterator) rebuild() {
	it.heap = it.heap[:0]
	it.single = nil

	if len(it.streams) == 1 {
		for _, s := range it.streams {
			it.single = s
		}
		return
	}

	for _, s := range it.streams {
		if s.cursor < len(s.data) {
			it.heap = append(it.heap, entry{
				tsInit:   s.data[s.cursor].InitNs(),
				priority: s.priority,
				index:    s.index,
			})
		}
	}
	heap.Init(&it.heap)
}

// Next returns the smallest-ts_init record across all streams; ties
// break by priority (lesser first), then stream index (lesser first).
// The second return is false when every stream is exhausted.
func (it *Iterator) Next() (common.Record, bool) {
	if it.single != nil {
		return it.advance(it.single)
	}

	for it.heap.Len() > 0 {
		head := heap.Pop(&it.heap).(entry)
		s, ok := it.byIndex[head.index]
		if !ok {
			continue
		}
		record, ok := it.advance(s)
		if !ok {
			continue
		}
		if s.cursor < len(s.data) {
			heap.Push(&it.heap, entry{
				tsInit:   s.data[s.cursor].InitNs(),
				priority: s.priority,
				index:    s.index,
			})
		}
		return record, true
	}
	return nil, false
}

// advance emits the record under the stream's cursor, refilling chunked
// streams as they drain.
func (it *Iterator) advance(s *stream) (common.Record, bool) {
	if s.cursor >= len(s.data) {
		if !it.refill(s) {
			return nil, false
		}
	}
	record := s.data[s.cursor]
	s.cursor++
	if s.cursor >= len(s.data) {
		it.refill(s)
	}
	return record, true
}

// refill replaces a drained chunked stream's data with the next chunk.
// Returns false when the stream has no more data.
func (it *Iterator) refill(s *stream) bool {
	if s.next == nil {
		return false
	}
	chunk := s.next()
	if len(chunk) == 0 {
		s.next = nil
		return false
	}
	s.data = chunk
	s.cursor = 0
	return true
}

// IsDone reports whether every stream's cursor has passed its end.
func (it *Iterator) IsDone() bool {
	for _, s := range it.streams {
		if s.cursor < len(s.data) || s.next != nil {
			return false
		}
	}
	return true
}

// Data returns the currently loaded records of a stream.
func (it *Iterator) Data(name string) []common.Record {
	s, ok := it.streams[name]
	if !ok {
		return nil
	}
	out := make([]common.Record, len(s.data))
	copy(out, s.data)
	return out
}

// AllData returns the loaded records of every stream, keyed by name.
func (it *Iterator) AllData() map[string][]common.Record {
	out := make(map[string][]common.Record, len(it.streams))
	for name := range it.streams {
		out[name] = it.Data(name)
	}
	return out
}

// Reset rewinds every stream's cursor to the start.
func (it *Iterator) Reset() {
	for _, s := range it.streams {
		s.cursor = 0
	}
	it.rebuild()
}
