package voting

import (
	"fmt"
	"math/big"

	"github.com/bjoernek/multi-chain-voting/types"
)

var hundred = big.NewInt(100)

// YesPercentage returns the share of yes weight in the total cast weight as a whole percentage,
// rounded down. It is zero when no weight was cast.
func YesPercentage(yes, no *big.Int) *big.Int {
	total := new(big.Int).Add(yes, no)
	if total.Sign() == 0 {
		return new(big.Int)
	}

	pct := new(big.Int).Mul(yes, hundred)

	return pct.Quo(pct, total)
}

// Summarize returns the outcome text recorded on the ledger when a proposal is executed.
func Summarize(p types.Proposal) string {
	yes := p.YesWeight
	if yes == nil {
		yes = new(big.Int)
	}
	no := p.NoWeight
	if no == nil {
		no = new(big.Int)
	}

	return fmt.Sprintf("proposal %d %q: %s%% yes (yes %s, no %s)", p.ID, p.Title, YesPercentage(yes, no), yes, no)
}
