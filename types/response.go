package types

// Response is the outcome of a successful Instantiate or Execute.
type Response struct {
	// Messages are transfers the host must execute from the round's
	// account, in order.
	Messages []BankMsg `cramberry:"1" json:"messages,omitempty"`
	Events   []Event   `cramberry:"2" json:"events,omitempty"`
	// ProposalID is set by CreateProposal.
	ProposalID *uint32 `cramberry:"3" json:"proposal_id,omitempty"`
	// Distributions is set by CheckDistributions and DistributeFunds.
	Distributions []Distribution `cramberry:"4" json:"distributions,omitempty"`
}

// QueryResponse carries the answer to a QueryMsg. Exactly one field is
// set, matching the query kind.
type QueryResponse struct {
	State         *StateResponse         `cramberry:"1" json:"state,omitempty"`
	Proposals     []ProposalInfo         `cramberry:"2" json:"proposals,omitempty"`
	ProposalState *ProposalStateResponse `cramberry:"3" json:"proposal_state,omitempty"`
}

// StateResponse is the round configuration with display addresses.
type StateResponse struct {
	Name                string      `cramberry:"1" json:"name"`
	Owner               HumanAddr   `cramberry:"2" json:"owner"`
	ProposerWhitelist   []HumanAddr `cramberry:"3" json:"proposer_whitelist"`
	VoterWhitelist      []HumanAddr `cramberry:"4" json:"voter_whitelist"`
	ProposalPeriodStart *uint64     `cramberry:"5" json:"proposal_period_start,omitempty"`
	ProposalPeriodEnd   *uint64     `cramberry:"6" json:"proposal_period_end,omitempty"`
	VotingPeriodStart   *uint64     `cramberry:"7" json:"voting_period_start,omitempty"`
	VotingPeriodEnd     *uint64     `cramberry:"8" json:"voting_period_end,omitempty"`
	// Phase is derived from the query time.
	Phase string `cramberry:"9" json:"phase"`
}

// ProposalInfo is a proposal with a display recipient.
type ProposalInfo struct {
	ID          uint32    `cramberry:"1" json:"id"`
	Name        string    `cramberry:"2" json:"name"`
	Description string    `cramberry:"3" json:"description"`
	Tags        string    `cramberry:"4" json:"tags"`
	Recipient   HumanAddr `cramberry:"5" json:"recipient"`
}

// VoteInfo is a vote with a display voter.
type VoteInfo struct {
	Voter    HumanAddr `cramberry:"1" json:"voter"`
	Proposal uint32    `cramberry:"2" json:"proposal"`
	Amount   []Coin    `cramberry:"3" json:"amount"`
}

// ProposalStateResponse is one proposal together with every vote that
// references it.
type ProposalStateResponse struct {
	Proposal ProposalInfo `cramberry:"1" json:"proposal"`
	Votes    []VoteInfo   `cramberry:"2" json:"votes"`
}
