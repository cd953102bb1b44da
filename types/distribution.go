package types

// Distribution is the computed payout of one proposal. It is derived
// on demand from the vote ledger and the budget, never persisted. All
// coins carry the budget's minor denomination.
type Distribution struct {
	Proposal  uint32        `cramberry:"1" json:"proposal"`
	Recipient CanonicalAddr `cramberry:"2" json:"recipient"`
	// Votes holds one normalized pledge per voter.
	Votes              []Coin `cramberry:"3" json:"votes"`
	DistributionIdeal  Coin   `cramberry:"4" json:"distribution_ideal"`
	SubsidyIdeal       Coin   `cramberry:"5" json:"subsidy_ideal"`
	DistributionActual Coin   `cramberry:"6" json:"distribution_actual"`
	SubsidyActual      Coin   `cramberry:"7" json:"subsidy_actual"`
}

// BankMsg instructs the host to transfer funds out of the round's
// account.
type BankMsg struct {
	ToAddress HumanAddr `cramberry:"1" json:"to_address"`
	Amount    []Coin    `cramberry:"2" json:"amount"`
}
