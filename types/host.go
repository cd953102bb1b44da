package types

// InstantiateRequest asks a host to create its round.
type InstantiateRequest struct {
	Sender HumanAddr `cramberry:"1"`
	Funds  []Coin    `cramberry:"2"`
	Msg    InitMsg   `cramberry:"3"`
}

// ExecuteRequest asks a host to run one mutating operation.
type ExecuteRequest struct {
	Sender HumanAddr  `cramberry:"1"`
	Funds  []Coin     `cramberry:"2"`
	Msg    ExecuteMsg `cramberry:"3"`
}

// Result is a host's answer to Instantiate or Execute.
type Result struct {
	// 0 = success. Non-zero codes are defined in package fundround.
	Code uint32 `cramberry:"1" json:"code"`
	// Error message (only set when Code is non-zero).
	Info string `cramberry:"2" json:"info,omitempty"`
	// Structured error detail (list type, period type or proposal id).
	Detail   string   `cramberry:"3" json:"detail,omitempty"`
	Height   uint64   `cramberry:"4" json:"height"`
	Response Response `cramberry:"5" json:"response"`
}

// OK returns true if the request succeeded.
func (r Result) OK() bool { return r.Code == 0 }

// QueryResult is a host's answer to Query.
type QueryResult struct {
	Code     uint32        `cramberry:"1" json:"code"`
	Info     string        `cramberry:"2" json:"info,omitempty"`
	Detail   string        `cramberry:"3" json:"detail,omitempty"`
	Height   uint64        `cramberry:"4" json:"height"`
	Response QueryResponse `cramberry:"5" json:"response"`
}

// OK returns true if the query succeeded.
func (r QueryResult) OK() bool { return r.Code == 0 }

// BalanceRequest reads one balance from a host bank.
type BalanceRequest struct {
	Address HumanAddr `cramberry:"1"`
	Denom   string    `cramberry:"2"`
}
