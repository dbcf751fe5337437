package btc

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/mrz1836/satsend/internal/wallet"
)

// activityResponse is one explorer transaction entry. Result is the net
// satoshi delta of the transaction against the queried addresses, fee
// included for spends.
type activityResponse struct {
	TxID          string `json:"txid"`
	Time          int64  `json:"time"`
	Result        int64  `json:"result"`
	Fee           int64  `json:"fee"`
	Confirmations uint32 `json:"confirmations"`
}

// ActivityFeed adapts the explorer's transaction endpoint to the on-chain
// half of an account's activity feed. Custodial trade activity comes from
// a separate source and is merged by the caller.
type ActivityFeed struct {
	Client *Client
}

var _ wallet.ActivitySource = (*ActivityFeed)(nil)

// Activity returns the account's on-chain transaction history, newest
// ordering left to the merge step.
func (f *ActivityFeed) Activity(ctx context.Context, account *wallet.Account) ([]wallet.ActivityItem, error) {
	addresses, err := account.WatchAddresses(f.Client.params)
	if err != nil {
		return nil, err
	}
	if len(addresses) == 0 {
		return nil, nil
	}

	var entries []activityResponse
	endpoint := fmt.Sprintf("%s/address/transactions?addresses=%s",
		f.Client.baseURL, url.QueryEscape(strings.Join(addresses, ",")))
	if err := f.Client.getJSON(ctx, endpointTransactions, endpoint, &entries); err != nil {
		return nil, err
	}

	items := make([]wallet.ActivityItem, 0, len(entries))
	for _, e := range entries {
		item := wallet.ActivityItem{
			TxID:          e.TxID,
			Timestamp:     time.Unix(e.Time, 0).UTC(),
			Fee:           btcutil.Amount(e.Fee),
			Confirmations: e.Confirmations,
		}
		switch {
		case e.Result > 0:
			item.Direction = wallet.DirectionIncoming
			item.Amount = btcutil.Amount(e.Result)
		case e.Result < 0:
			// The delta includes the fee; the displayed amount is what
			// actually left for the recipient.
			item.Direction = wallet.DirectionOutgoing
			sent := btcutil.Amount(-e.Result)
			if sent >= item.Fee {
				sent -= item.Fee
			}
			item.Amount = sent
		default:
			item.Direction = wallet.DirectionTransfer
		}
		items = append(items, item)
	}
	return items, nil
}
