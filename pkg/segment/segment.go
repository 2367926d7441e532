package segment

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxSize is the EBICS segment size limit for order data (1 MB)
const DefaultMaxSize = 1024 * 1024

var (
	// ErrInvalidSize is returned for a non-positive maximum segment size
	ErrInvalidSize = errors.New("segment size must be positive")
	// ErrSegmentOutOfRange is returned for a segment number outside 1..n
	ErrSegmentOutOfRange = errors.New("segment number out of range")
	// ErrDuplicateSegment is returned when a segment arrives twice
	ErrDuplicateSegment = errors.New("duplicate segment")
	// ErrIncomplete is returned when reading unfinished order data
	ErrIncomplete = errors.New("order data incomplete")
)

// Split cuts payload into chunks of at most maxSize bytes, preserving order.
// An empty payload yields zero segments.
func Split(payload string, maxSize int) ([]string, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, maxSize)
	}

	segments := make([]string, 0, Count(len(payload), maxSize))
	for start := 0; start < len(payload); start += maxSize {
		end := min(start+maxSize, len(payload))
		segments = append(segments, payload[start:end])
	}

	return segments, nil
}

// Count returns the number of segments Split produces for a payload length
func Count(length, maxSize int) int {
	if length <= 0 || maxSize <= 0 {
		return 0
	}
	return (length + maxSize - 1) / maxSize
}

// Reassembler collects downloaded segments into their slots.
//
// A Reassembler is owned by a single transaction and is not safe for
// concurrent use.
type Reassembler struct {
	slots    []string
	filled   []bool
	received int
	last     bool
}

// NewReassembler allocates a reassembler for n segments
func NewReassembler(n int) *Reassembler {
	if n < 0 {
		n = 0
	}
	return &Reassembler{
		slots:  make([]string, n),
		filled: make([]bool, n),
	}
}

// Put stores the data of a 1-based segment number
func (r *Reassembler) Put(segmentNumber int, data string) error {
	if segmentNumber < 1 || segmentNumber > len(r.slots) {
		return fmt.Errorf("%w: %d of %d", ErrSegmentOutOfRange, segmentNumber, len(r.slots))
	}

	idx := segmentNumber - 1
	if r.filled[idx] {
		return fmt.Errorf("%w: %d", ErrDuplicateSegment, segmentNumber)
	}

	r.slots[idx] = data
	r.filled[idx] = true
	r.received++
	return nil
}

// MarkLast records that the bank flagged the last segment
func (r *Reassembler) MarkLast() {
	r.last = true
}

// Len returns the expected number of segments
func (r *Reassembler) Len() int {
	return len(r.slots)
}

// Received returns how many segments have been stored
func (r *Reassembler) Received() int {
	return r.received
}

// Complete reports whether every slot is filled and the last segment was seen
func (r *Reassembler) Complete() bool {
	return r.last && r.received == len(r.slots)
}

// Bytes returns the reassembled order data once complete
func (r *Reassembler) Bytes() ([]byte, error) {
	if !r.Complete() {
		return nil, fmt.Errorf("%w: %d of %d segments", ErrIncomplete, r.received, len(r.slots))
	}
	return []byte(strings.Join(r.slots, "")), nil
}

// Partial returns the concatenation of all slots, unfilled slots rendering
// as empty strings.
func (r *Reassembler) Partial() string {
	return strings.Join(r.slots, "")
}
