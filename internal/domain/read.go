package domain

// ReadStatus is the lifecycle of a single on-chain read.
type ReadStatus int

const (
	ReadPending ReadStatus = iota // in flight or failed transiently
	ReadEmpty                     // resolved with no result (e.g. no contract at the address)
	ReadResolved
)

// Read holds the outcome of one independent on-chain call.
// The zero value is a pending read.
type Read[T any] struct {
	status ReadStatus
	value  T
}

// Pending returns a read that has not resolved yet.
func Pending[T any]() Read[T] { return Read[T]{} }

// Empty returns a read that resolved to an absent result.
func Empty[T any]() Read[T] { return Read[T]{status: ReadEmpty} }

// Resolved returns a read carrying v.
func Resolved[T any](v T) Read[T] { return Read[T]{status: ReadResolved, value: v} }

// Status reports the read lifecycle state.
func (r Read[T]) Status() ReadStatus { return r.status }

// Get returns the value and whether the read resolved with one.
func (r Read[T]) Get() (T, bool) {
	return r.value, r.status == ReadResolved
}
