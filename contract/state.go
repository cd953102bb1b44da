package contract

import (
	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/pkg/errors"

	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// StateKey is the store key of the round state singleton.
var StateKey = []byte("config")

// LoadState reads the round state. It returns ErrRoundNotFound when
// the round has not been instantiated.
func LoadState(st fundround.Store) (*types.State, error) {
	data, err := st.Get(StateKey)
	if err != nil {
		return nil, errors.Wrap(err, "load round state")
	}
	if data == nil {
		return nil, fundround.ErrRoundNotFound
	}
	s := new(types.State)
	if err := cramberry.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "decode round state")
	}
	return s, nil
}

// SaveState overwrites the round state singleton.
func SaveState(st fundround.Store, s *types.State) error {
	data, err := cramberry.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode round state")
	}
	if err := st.Set(StateKey, data); err != nil {
		return errors.Wrap(err, "save round state")
	}
	return nil
}
