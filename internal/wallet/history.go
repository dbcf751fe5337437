package wallet

import (
	"context"
	"sort"
	"time"

	"github.com/btcsuite/btcd/btcutil"
)

// Direction classifies an activity item relative to the account.
type Direction int

// Activity directions.
const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
	DirectionTransfer
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIncoming:
		return "received"
	case DirectionOutgoing:
		return "sent"
	case DirectionTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// ActivityItem is one historical transaction touching an account.
type ActivityItem struct {
	TxID          string
	Timestamp     time.Time
	Direction     Direction
	Amount        btcutil.Amount
	Fee           btcutil.Amount
	Confirmations uint32

	// Custodial marks items sourced from the exchange backend rather than
	// the chain.
	Custodial bool
}

// ActivitySource yields the activity feed for one account from one backend.
type ActivitySource interface {
	Activity(ctx context.Context, account *Account) ([]ActivityItem, error)
}

// MergedActivity fetches from every source and returns a single feed sorted
// newest first. A failing source degrades the feed rather than failing it;
// the first error is returned alongside whatever was collected.
func MergedActivity(ctx context.Context, account *Account, sources ...ActivitySource) ([]ActivityItem, error) {
	var items []ActivityItem
	var firstErr error

	for _, src := range sources {
		batch, err := src.Activity(ctx, account)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		items = append(items, batch...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, firstErr
}
