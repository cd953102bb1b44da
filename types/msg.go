package types

import "fmt"

// InitMsg configures a new round. Whitelists use display addresses;
// entries that fail to canonicalize are dropped.
type InitMsg struct {
	Name                string      `cramberry:"1" json:"name"`
	ProposerWhitelist   []HumanAddr `cramberry:"2" json:"proposer_whitelist"`
	VoterWhitelist      []HumanAddr `cramberry:"3" json:"voter_whitelist"`
	ProposalPeriodStart *uint64     `cramberry:"4" json:"proposal_period_start,omitempty"`
	ProposalPeriodEnd   *uint64     `cramberry:"5" json:"proposal_period_end,omitempty"`
	VotingPeriodStart   *uint64     `cramberry:"6" json:"voting_period_start,omitempty"`
	VotingPeriodEnd     *uint64     `cramberry:"7" json:"voting_period_end,omitempty"`
}

// ExecuteKind selects the operation carried by an ExecuteMsg.
type ExecuteKind uint8

const (
	ExecuteUnknown ExecuteKind = iota
	ExecuteCreateProposal
	ExecuteCreateVote
	ExecuteStartProposalPeriod
	ExecuteEndProposalPeriod
	ExecuteStartVotingPeriod
	ExecuteEndVotingPeriod
	ExecuteCheckDistributions
	ExecuteDistributeFunds
)

func (k ExecuteKind) String() string {
	switch k {
	case ExecuteCreateProposal:
		return "create_proposal"
	case ExecuteCreateVote:
		return "create_vote"
	case ExecuteStartProposalPeriod:
		return "start_proposal_period"
	case ExecuteEndProposalPeriod:
		return "end_proposal_period"
	case ExecuteStartVotingPeriod:
		return "start_voting_period"
	case ExecuteEndVotingPeriod:
		return "end_voting_period"
	case ExecuteCheckDistributions:
		return "check_distributions"
	case ExecuteDistributeFunds:
		return "distribute_funds"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ExecuteMsg is a tagged union of the mutating operations. Kind selects
// the operation; only the payload field matching Kind is read.
type ExecuteMsg struct {
	Kind           ExecuteKind        `cramberry:"1"`
	CreateProposal *CreateProposalMsg `cramberry:"2"`
	CreateVote     *CreateVoteMsg     `cramberry:"3"`
	// Period is the payload of the four period transitions. A nil
	// payload or nil Time means "now".
	Period *PeriodMsg `cramberry:"4"`
}

// CreateProposalMsg submits a funding request.
type CreateProposalMsg struct {
	Name        string    `cramberry:"1"`
	Description string    `cramberry:"2"`
	Tags        string    `cramberry:"3"`
	Recipient   HumanAddr `cramberry:"4"`
}

// CreateVoteMsg pledges the attached funds to a proposal.
type CreateVoteMsg struct {
	ProposalID uint32 `cramberry:"1"`
}

// PeriodMsg moves a period bound. Time nil means the current block
// time.
type PeriodMsg struct {
	Time *uint64 `cramberry:"1"`
}

// --- Constructors ---

// CreateProposal builds a create-proposal message.
func CreateProposal(name, description, tags string, recipient HumanAddr) ExecuteMsg {
	return ExecuteMsg{
		Kind: ExecuteCreateProposal,
		CreateProposal: &CreateProposalMsg{
			Name:        name,
			Description: description,
			Tags:        tags,
			Recipient:   recipient,
		},
	}
}

// CreateVote builds a create-vote message.
func CreateVote(proposalID uint32) ExecuteMsg {
	return ExecuteMsg{Kind: ExecuteCreateVote, CreateVote: &CreateVoteMsg{ProposalID: proposalID}}
}

// PeriodTransition builds one of the four period transition messages.
// A nil time means the current block time.
func PeriodTransition(kind ExecuteKind, time *uint64) ExecuteMsg {
	return ExecuteMsg{Kind: kind, Period: &PeriodMsg{Time: time}}
}

// CheckDistributions builds a check-distributions message.
func CheckDistributions() ExecuteMsg {
	return ExecuteMsg{Kind: ExecuteCheckDistributions}
}

// DistributeFunds builds a distribute-funds message.
func DistributeFunds() ExecuteMsg {
	return ExecuteMsg{Kind: ExecuteDistributeFunds}
}

// QueryKind selects the read carried by a QueryMsg.
type QueryKind uint8

const (
	QueryUnknown QueryKind = iota
	QueryGetState
	QueryProposalList
	QueryProposalState
)

func (k QueryKind) String() string {
	switch k {
	case QueryGetState:
		return "get_state"
	case QueryProposalList:
		return "proposal_list"
	case QueryProposalState:
		return "proposal_state"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// QueryMsg is a read-only request. ProposalID is read only by
// QueryProposalState.
type QueryMsg struct {
	Kind       QueryKind `cramberry:"1"`
	ProposalID uint32    `cramberry:"2"`
}

// GetState builds a state query.
func GetState() QueryMsg { return QueryMsg{Kind: QueryGetState} }

// ProposalList builds a proposal list query.
func ProposalList() QueryMsg { return QueryMsg{Kind: QueryProposalList} }

// ProposalState builds a single-proposal query.
func ProposalState(id uint32) QueryMsg {
	return QueryMsg{Kind: QueryProposalState, ProposalID: id}
}
