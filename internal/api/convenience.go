package api

import (
	"net/url"

	"github.com/zhuangyq008/s3-image-process/internal/chain"
	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

// convenienceChain builds a one-operation chain from query parameters and
// returns it with its chain-syntax rendering for the usage ledger.
func convenienceChain(kind domain.OpKind, query url.Values) (domain.Chain, string, error) {
	values := make(map[string]string)
	for _, key := range chain.ParamKeys[kind] {
		if query.Has(key) {
			values[key] = query.Get(key)
		}
	}

	seg := chain.NewSegment(string(kind), values)
	op, err := chain.Build(seg)
	if err != nil {
		return nil, "", err
	}
	return domain.Chain{op}, seg.String(), nil
}
