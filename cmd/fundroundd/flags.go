package main

import (
	"github.com/spf13/pflag"

	"github.com/blockberries/fundround/types"
)

const (
	ConfigKey = "config"

	NodeKey = "node"
	FromKey = "from"

	NameKey          = "name"
	ProposersKey     = "proposers"
	VotersKey        = "voters"
	ProposalStartKey = "proposal-start"
	ProposalEndKey   = "proposal-end"
	VotingStartKey   = "voting-start"
	VotingEndKey     = "voting-end"

	DescriptionKey = "description"
	TagsKey        = "tags"
	RecipientKey   = "recipient"
	AmountKey      = "amount"
	AtKey          = "at"
)

func AddServeFlags(flags *pflag.FlagSet) {
	flags.String(ConfigKey, "", "Path to the configuration file (default ./fundround.yaml)")
}

func AddClientFlags(flags *pflag.FlagSet) {
	flags.String(NodeKey, "localhost:9090", "gRPC address of the round host")
}

func AddTxFlags(flags *pflag.FlagSet) {
	AddClientFlags(flags)
	flags.String(FromKey, "", "Sender address (required)")
}

func AddInstantiateFlags(flags *pflag.FlagSet) {
	flags.String(NameKey, "", "Name of the round")
	flags.StringSlice(ProposersKey, nil, "Proposer whitelist; empty allows anyone")
	flags.StringSlice(VotersKey, nil, "Voter whitelist; empty allows anyone")
	flags.Uint64(ProposalStartKey, 0, "Proposal period start, unix seconds")
	flags.Uint64(ProposalEndKey, 0, "Proposal period end, unix seconds")
	flags.Uint64(VotingStartKey, 0, "Voting period start, unix seconds")
	flags.Uint64(VotingEndKey, 0, "Voting period end, unix seconds")
}

func AddProposeFlags(flags *pflag.FlagSet) {
	flags.String(NameKey, "", "Proposal name")
	flags.String(DescriptionKey, "", "Proposal description")
	flags.String(TagsKey, "", "Space separated tags")
	flags.String(RecipientKey, "", "Address that receives the funds (required)")
}

func AddVoteFlags(flags *pflag.FlagSet) {
	flags.String(AmountKey, "", "Pledge, such as 1000uearth (required)")
}

func AddPeriodFlags(flags *pflag.FlagSet) {
	flags.Uint64(AtKey, 0, "Bound to set, unix seconds; defaults to the block time")
}

// ParseInitMsg reads an InitMsg from the instantiate flags. Unset
// period flags leave the bound unset.
func ParseInitMsg(flags *pflag.FlagSet) (types.InitMsg, error) {
	var msg types.InitMsg
	var err error
	if msg.Name, err = flags.GetString(NameKey); err != nil {
		return msg, err
	}
	proposers, err := flags.GetStringSlice(ProposersKey)
	if err != nil {
		return msg, err
	}
	voters, err := flags.GetStringSlice(VotersKey)
	if err != nil {
		return msg, err
	}
	msg.ProposerWhitelist = humanAddrs(proposers)
	msg.VoterWhitelist = humanAddrs(voters)

	bounds := []struct {
		key string
		dst **uint64
	}{
		{ProposalStartKey, &msg.ProposalPeriodStart},
		{ProposalEndKey, &msg.ProposalPeriodEnd},
		{VotingStartKey, &msg.VotingPeriodStart},
		{VotingEndKey, &msg.VotingPeriodEnd},
	}
	for _, b := range bounds {
		if *b.dst, err = optionalUint64(flags, b.key); err != nil {
			return msg, err
		}
	}
	return msg, nil
}

// optionalUint64 returns nil unless the flag was set explicitly.
func optionalUint64(flags *pflag.FlagSet, key string) (*uint64, error) {
	if !flags.Changed(key) {
		return nil, nil
	}
	v, err := flags.GetUint64(key)
	if err != nil {
		return nil, err
	}
	return types.At(v), nil
}

func humanAddrs(list []string) []types.HumanAddr {
	if len(list) == 0 {
		return nil
	}
	out := make([]types.HumanAddr, len(list))
	for i, s := range list {
		out[i] = types.HumanAddr(s)
	}
	return out
}
