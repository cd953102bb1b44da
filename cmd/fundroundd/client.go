package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v2"

	"github.com/blockberries/fundround"
	fundgrpc "github.com/blockberries/fundround/grpc"
	"github.com/blockberries/fundround/types"
)

func queryCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "query",
		Short: "Reads round state from a host",
	}
	AddClientFlags(c.PersistentFlags())

	c.AddCommand(
		queryKindCommand("state", "Shows the round state and phase", cobra.NoArgs,
			func([]string) (types.QueryMsg, error) { return types.GetState(), nil }),
		queryKindCommand("proposals", "Lists proposals", cobra.NoArgs,
			func([]string) (types.QueryMsg, error) { return types.ProposalList(), nil }),
		queryKindCommand("proposal [id]", "Shows a proposal and its votes", cobra.ExactArgs(1),
			func(args []string) (types.QueryMsg, error) {
				id, err := parseID(args[0])
				return types.ProposalState(id), err
			}),
		&cobra.Command{
			Use:   "balance [address] [denom]",
			Short: "Shows an account balance",
			Args:  cobra.ExactArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				return withClient(c, func(ctx context.Context, conn fundround.Connection) error {
					coin, err := conn.Balance(ctx, types.HumanAddr(args[0]), args[1])
					if err != nil {
						return err
					}
					return printYAML(c, coin)
				})
			},
		},
	)
	return c
}

func queryKindCommand(use, short string, args cobra.PositionalArgs, build func([]string) (types.QueryMsg, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(c *cobra.Command, args []string) error {
			msg, err := build(args)
			if err != nil {
				return err
			}
			return withClient(c, func(ctx context.Context, conn fundround.Connection) error {
				res, err := conn.Query(ctx, msg)
				if err != nil {
					return err
				}
				if err := fundround.ErrorFromResult(res.Code, res.Info, res.Detail); err != nil {
					return err
				}
				return printYAML(c, res.Response)
			})
		},
	}
}

func txCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "tx",
		Short: "Submits a request to a host",
	}
	AddTxFlags(c.PersistentFlags())

	instantiate := &cobra.Command{
		Use:   "instantiate",
		Short: "Creates the round with the sender as owner",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			msg, err := ParseInitMsg(c.Flags())
			if err != nil {
				return err
			}
			return withClient(c, func(ctx context.Context, conn fundround.Connection) error {
				from, err := sender(c.Flags())
				if err != nil {
					return err
				}
				res, err := conn.Instantiate(ctx, types.InstantiateRequest{Sender: from, Msg: msg})
				return printResult(c, res, err)
			})
		},
	}
	AddInstantiateFlags(instantiate.Flags())

	propose := executeCommand("propose", "Creates a proposal", cobra.NoArgs,
		func(flags *pflag.FlagSet, _ []string) (types.ExecuteMsg, []types.Coin, error) {
			name, _ := flags.GetString(NameKey)
			description, _ := flags.GetString(DescriptionKey)
			tags, _ := flags.GetString(TagsKey)
			recipient, err := flags.GetString(RecipientKey)
			if err != nil {
				return types.ExecuteMsg{}, nil, err
			}
			if recipient == "" {
				return types.ExecuteMsg{}, nil, errors.New("--recipient is required")
			}
			return types.CreateProposal(name, description, tags, types.HumanAddr(recipient)), nil, nil
		})
	AddProposeFlags(propose.Flags())

	vote := executeCommand("vote [proposal-id]", "Pledges funds to a proposal", cobra.ExactArgs(1),
		func(flags *pflag.FlagSet, args []string) (types.ExecuteMsg, []types.Coin, error) {
			id, err := parseID(args[0])
			if err != nil {
				return types.ExecuteMsg{}, nil, err
			}
			amount, err := flags.GetString(AmountKey)
			if err != nil {
				return types.ExecuteMsg{}, nil, err
			}
			coin, err := types.ParseCoin(amount)
			if err != nil {
				return types.ExecuteMsg{}, nil, err
			}
			return types.CreateVote(id), []types.Coin{coin}, nil
		})
	AddVoteFlags(vote.Flags())

	c.AddCommand(instantiate, propose, vote,
		periodCommand("start-proposal", "Opens the proposal period", types.ExecuteStartProposalPeriod),
		periodCommand("end-proposal", "Closes the proposal period", types.ExecuteEndProposalPeriod),
		periodCommand("start-voting", "Opens the voting period", types.ExecuteStartVotingPeriod),
		periodCommand("end-voting", "Closes the voting period", types.ExecuteEndVotingPeriod),
		executeCommand("check-distributions", "Computes distributions without paying", cobra.NoArgs,
			func(*pflag.FlagSet, []string) (types.ExecuteMsg, []types.Coin, error) {
				return types.CheckDistributions(), nil, nil
			}),
		executeCommand("distribute", "Pays out the matching funds", cobra.NoArgs,
			func(*pflag.FlagSet, []string) (types.ExecuteMsg, []types.Coin, error) {
				return types.DistributeFunds(), nil, nil
			}),
	)
	return c
}

func periodCommand(use, short string, kind types.ExecuteKind) *cobra.Command {
	c := executeCommand(use, short, cobra.NoArgs,
		func(flags *pflag.FlagSet, _ []string) (types.ExecuteMsg, []types.Coin, error) {
			at, err := optionalUint64(flags, AtKey)
			if err != nil {
				return types.ExecuteMsg{}, nil, err
			}
			return types.PeriodTransition(kind, at), nil, nil
		})
	AddPeriodFlags(c.Flags())
	return c
}

func executeCommand(use, short string, args cobra.PositionalArgs, build func(*pflag.FlagSet, []string) (types.ExecuteMsg, []types.Coin, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(c *cobra.Command, args []string) error {
			msg, funds, err := build(c.Flags(), args)
			if err != nil {
				return err
			}
			from, err := sender(c.Flags())
			if err != nil {
				return err
			}
			return withClient(c, func(ctx context.Context, conn fundround.Connection) error {
				res, err := conn.Execute(ctx, types.ExecuteRequest{Sender: from, Funds: funds, Msg: msg})
				return printResult(c, res, err)
			})
		},
	}
}

func withClient(c *cobra.Command, fn func(context.Context, fundround.Connection) error) error {
	node, err := c.Flags().GetString(NodeKey)
	if err != nil {
		return err
	}
	ctx := c.Context()
	conn, err := fundgrpc.Dial(ctx, node, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, conn)
}

func sender(flags *pflag.FlagSet) (types.HumanAddr, error) {
	from, err := flags.GetString(FromKey)
	if err != nil {
		return "", err
	}
	if from == "" {
		return "", errors.New("--from is required")
	}
	return types.HumanAddr(from), nil
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid proposal id %q", s)
	}
	return uint32(id), nil
}

func printResult(c *cobra.Command, res types.Result, err error) error {
	if err != nil {
		return err
	}
	if err := printYAML(c, res); err != nil {
		return err
	}
	return fundround.ErrorFromResult(res.Code, res.Info, res.Detail)
}

func printYAML(c *cobra.Command, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "render output")
	}
	fmt.Fprint(c.OutOrStdout(), string(out))
	return nil
}
