// Package types defines the data types of a funding round: round
// state, proposals, votes, distributions and the request, response and
// event types exchanged with a host.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns (gRPC codec
// registration, JSON rendering) are handled in the transport packages.
package types

// CanonicalAddr is the fixed internal byte form of an account address.
type CanonicalAddr []byte

// Equal reports whether a and b hold the same bytes.
func (a CanonicalAddr) Equal(b CanonicalAddr) bool {
	return string(a) == string(b)
}

// HumanAddr is the display form of an account address.
type HumanAddr string

// Env describes the host context a request runs in.
type Env struct {
	// Time is the block time in seconds since the Unix epoch.
	Time uint64 `cramberry:"1"`
	// Height is the sequence number of the request being executed.
	Height uint64 `cramberry:"2"`
	// Contract is the account holding the round's funds.
	Contract HumanAddr `cramberry:"3"`
}

// MessageInfo carries the caller identity and the value attached to a
// request.
type MessageInfo struct {
	Sender HumanAddr `cramberry:"1"`
	Funds  []Coin    `cramberry:"2"`
}
