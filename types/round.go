package types

// State is the single persisted record of a round. It is created by
// Instantiate and rewritten by every successful mutating request.
type State struct {
	// Owner administers the round. Immutable after creation.
	Owner CanonicalAddr `cramberry:"1"`
	Name  string        `cramberry:"2"`
	// An empty whitelist authorizes everyone.
	ProposerWhitelist []CanonicalAddr `cramberry:"3"`
	VoterWhitelist    []CanonicalAddr `cramberry:"4"`
	// Period bounds in seconds. Nil means not set.
	ProposalPeriodStart *uint64 `cramberry:"5"`
	ProposalPeriodEnd   *uint64 `cramberry:"6"`
	VotingPeriodStart   *uint64 `cramberry:"7"`
	VotingPeriodEnd     *uint64 `cramberry:"8"`
	// Append-only. Proposals[i].ID == i.
	Proposals []Proposal `cramberry:"9"`
	Votes     []Vote     `cramberry:"10"`
}

// Proposal is a funding request. Immutable once created.
type Proposal struct {
	ID          uint32        `cramberry:"1"`
	Name        string        `cramberry:"2"`
	Description string        `cramberry:"3"`
	Tags        string        `cramberry:"4"`
	Recipient   CanonicalAddr `cramberry:"5"`
}

// Vote is a pledge of value to a proposal. The same voter may vote on
// the same proposal more than once; the pledges are summed when
// distributions are computed.
type Vote struct {
	Voter    CanonicalAddr `cramberry:"1"`
	Proposal uint32        `cramberry:"2"`
	// Funds attached to the request that created the vote.
	Amount []Coin `cramberry:"3"`
}

// VotesFor returns the votes referencing proposal id, in ledger order.
func (s *State) VotesFor(id uint32) []Vote {
	var out []Vote
	for _, v := range s.Votes {
		if v.Proposal == id {
			out = append(out, v)
		}
	}
	return out
}
