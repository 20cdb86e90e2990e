package merger

import (
	"fmt"

	"github.com/buildbuildio/cobble/config"
)

// Merger is an interface for structs that are capable of taking a list of config sets and returning something that
// resembles a "merge" of those sets.
type Merger interface {
	Merge([]*config.ConfigSet) (*config.ConfigSet, error)
}

// RightBiasedMergerFunc folds the sets in order with MergeRight, starting
// from an empty set. Later sets take precedence.
type RightBiasedMergerFunc func(sets []*config.ConfigSet) (*config.ConfigSet, error)

var _ Merger = RightBiasedMergerFunc(nil)

func (RightBiasedMergerFunc) Merge(sets []*config.ConfigSet) (*config.ConfigSet, error) {
	res := config.NewConfigSet(nil)

	for i, set := range sets {
		if set == nil || set.Config == nil {
			return nil, fmt.Errorf("config set %d is empty", i)
		}
		res = MergeRight(res, set)
	}

	return res, nil
}
