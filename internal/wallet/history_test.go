package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubActivitySource returns a fixed batch or error.
type stubActivitySource struct {
	items []ActivityItem
	err   error
}

func (s *stubActivitySource) Activity(_ context.Context, _ *Account) ([]ActivityItem, error) {
	return s.items, s.err
}

// TestMergedActivity tests merging and newest-first ordering across sources.
func TestMergedActivity(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	onChain := &stubActivitySource{items: []ActivityItem{
		{TxID: "older", Timestamp: base.Add(-time.Hour), Direction: DirectionIncoming},
		{TxID: "newest", Timestamp: base.Add(time.Hour), Direction: DirectionOutgoing},
	}}
	custodial := &stubActivitySource{items: []ActivityItem{
		{TxID: "middle", Timestamp: base, Direction: DirectionTransfer, Custodial: true},
	}}

	items, err := MergedActivity(context.Background(), &Account{}, onChain, custodial)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "newest", items[0].TxID)
	assert.Equal(t, "middle", items[1].TxID)
	assert.Equal(t, "older", items[2].TxID)
}

// TestMergedActivity_SourceFailureDegrades tests that one failing source
// still yields the others' items plus the error.
func TestMergedActivity_SourceFailureDegrades(t *testing.T) {
	t.Parallel()

	working := &stubActivitySource{items: []ActivityItem{{TxID: "ok"}}}
	broken := &stubActivitySource{err: errors.New("backend down")}

	items, err := MergedActivity(context.Background(), &Account{}, broken, working)
	require.Error(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ok", items[0].TxID)
}

// TestDirection_String tests direction labels.
func TestDirection_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "received", DirectionIncoming.String())
	assert.Equal(t, "sent", DirectionOutgoing.String())
	assert.Equal(t, "transfer", DirectionTransfer.String())
	assert.Equal(t, "unknown", Direction(99).String())
}
