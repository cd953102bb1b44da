package types

import "strconv"

// EventAttribute is a single key-value tag within an event.
type EventAttribute struct {
	Key   string `cramberry:"1" json:"key"`
	Value string `cramberry:"2" json:"value"`
	Index bool   `cramberry:"3" json:"index,omitempty"` // Whether indexers should pick this up.
}

// Event is a round-emitted event.
type Event struct {
	Kind       string           `cramberry:"1" json:"kind"`
	Attributes []EventAttribute `cramberry:"2" json:"attributes"`
}

// Event kinds emitted by the round.
const (
	EventInstantiate        = "instantiate"
	EventWhitelistDropped   = "whitelist_dropped"
	EventCreateProposal     = "create_proposal"
	EventCreateVote         = "create_vote"
	EventPeriodChanged      = "period_changed"
	EventDistributionResult = "distribution"
	EventTransfer           = "transfer"
)

// NewEvent creates an event with the given key/value pairs. A trailing
// key without a value is ignored.
func NewEvent(kind string, kv ...string) Event {
	ev := Event{Kind: kind}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, EventAttribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

// Attr returns the value of the first attribute named key.
func (e Event) Attr(key string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// FormatID renders a proposal id as an attribute value.
func FormatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
