package contract

import (
	"github.com/blockberries/fundround"
	"github.com/blockberries/fundround/types"
)

// IsAuthorized reports whether addr may act under list. An empty list
// authorizes everyone.
func IsAuthorized(addr types.CanonicalAddr, list []types.CanonicalAddr) bool {
	if len(list) == 0 {
		return true
	}
	for _, member := range list {
		if member.Equal(addr) {
			return true
		}
	}
	return false
}

func authorize(addr types.CanonicalAddr, list []types.CanonicalAddr, listType string) error {
	if !IsAuthorized(addr, list) {
		return fundround.NewUnauthorizedError(listType)
	}
	return nil
}

// authorizeOwner checks addr against the singleton owner list.
func authorizeOwner(addr types.CanonicalAddr, s *types.State) error {
	return authorize(addr, []types.CanonicalAddr{s.Owner}, fundround.ListOwner)
}
