package contractdb

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/spend"
)

var (
	ctx      = context.Background()
	fundTxID = strings.Repeat("ab", 32)
	spendTx  = strings.Repeat("cd", 32)
)

func newTestDB(t *testing.T) *ContractDB {
	cdb, db, err := Open(":memory:", network.RegtestParams())
	require.NoError(t, err)
	t.Cleanup(func() {
		cdb.Close()
		db.Close()
	})
	return cdb
}

func newRecord(t *testing.T, tl contract.Timelock) (*contract.Record, hashlock.Secret) {
	claimant, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	refundee, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	secret, err := hashlock.GenerateRandomSecret()
	require.NoError(t, err)
	hl, err := secret.Hashlock(hashlock.FamilyUTXO)
	require.NoError(t, err)
	d, err := contract.New(contract.Params{
		ClaimantKey: claimant.PubKey().SerializeCompressed(),
		RefundeeKey: refundee.PubKey().SerializeCompressed(),
		Timelock:    tl,
		Hashlock:    hl,
		Network:     network.RegtestParams(),
	})
	require.NoError(t, err)
	return d.ToRecord("alice", "bob", 50_000, &secret), secret
}

func TestInsertGet(t *testing.T) {
	cdb := newTestDB(t)
	r, _ := newRecord(t, contract.AtHeight(1_000))
	require.NoError(t, cdb.Insert(ctx, r))

	e, err := cdb.Get(ctx, r.CommittedAddress)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(r, e.Record))
	assert.Equal(t, spend.StateCreated, e.State)
	assert.Empty(t, e.FundingTxID)

	d, err := e.Descriptor(network.RegtestParams())
	require.NoError(t, err)
	assert.Equal(t, r.CommittedAddress, d.Address())

	// primary key
	assert.Error(t, cdb.Insert(ctx, r))

	_, err = cdb.Get(ctx, "2NBr6Zd7JNv6WNmhGksk7wzYJCLMmNuYfEJ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertRejectsBadRecord(t *testing.T) {
	cdb := newTestDB(t)
	r, _ := newRecord(t, contract.AtHeight(1_000))

	bad := *r
	bad.Timelock++
	assert.ErrorIs(t, cdb.Insert(ctx, &bad), common.ErrMalformedRecord)

	bad = *r
	bad.Secret = strings.Repeat("00", 32)
	assert.ErrorIs(t, cdb.Insert(ctx, &bad), common.ErrSecretMismatch)

	bad = *r
	bad.Amount = -1
	assert.Error(t, cdb.Insert(ctx, &bad))
}

func TestLifecycle(t *testing.T) {
	cdb := newTestDB(t)
	claimed, _ := newRecord(t, contract.AtHeight(1_000))
	refunded, _ := newRecord(t, contract.AtHeight(2_000))
	for _, r := range []*contract.Record{claimed, refunded} {
		require.NoError(t, cdb.Insert(ctx, r))
	}

	// cannot claim before funding
	assert.ErrorIs(t, cdb.MarkClaimed(ctx, claimed.CommittedAddress, spendTx), spend.ErrInvalidTransition)

	require.NoError(t, cdb.MarkFunded(ctx, claimed.CommittedAddress, fundTxID, 0))
	require.NoError(t, cdb.MarkFunded(ctx, refunded.CommittedAddress, fundTxID, 1))
	n, err := cdb.Count(ctx, spend.StateFunded)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, cdb.MarkClaimed(ctx, claimed.CommittedAddress, spendTx))
	e, err := cdb.Get(ctx, claimed.CommittedAddress)
	require.NoError(t, err)
	assert.Equal(t, spend.StateClaimedBySecret, e.State)
	assert.Equal(t, spendTx, e.SpendTxID)
	assert.Empty(t, e.Record.Secret, "secret dropped once disclosed")

	require.NoError(t, cdb.MarkRefunded(ctx, refunded.CommittedAddress, spendTx))
	e, err = cdb.Get(ctx, refunded.CommittedAddress)
	require.NoError(t, err)
	assert.Equal(t, spend.StateRefundedAfterExpiry, e.State)
	assert.Equal(t, fundTxID, e.FundingTxID)
	assert.Equal(t, uint32(1), e.FundingVout)
	assert.NotEmpty(t, e.Record.Secret)

	// terminal
	assert.ErrorIs(t, cdb.MarkRefunded(ctx, claimed.CommittedAddress, spendTx), spend.ErrInvalidTransition)
	assert.ErrorIs(t, cdb.MarkFunded(ctx, "unknown", fundTxID, 0), ErrNotFound)
}

func TestListRefundable(t *testing.T) {
	cdb := newTestDB(t)
	early, _ := newRecord(t, contract.AtHeight(1_000))
	late, _ := newRecord(t, contract.AtHeight(2_000))
	byTime, _ := newRecord(t, contract.AtTime(time.Unix(1_700_000_000, 0)))
	unfunded, _ := newRecord(t, contract.AtHeight(500))
	for _, r := range []*contract.Record{early, late, byTime, unfunded} {
		require.NoError(t, cdb.Insert(ctx, r))
	}
	for _, r := range []*contract.Record{early, late, byTime} {
		require.NoError(t, cdb.MarkFunded(ctx, r.CommittedAddress, fundTxID, 0))
	}

	got, err := cdb.ListRefundable(ctx, contract.AtHeight(1_000))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, early.CommittedAddress, got[0].Record.CommittedAddress)

	got, err = cdb.ListRefundable(ctx, contract.AtHeight(5_000))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = cdb.ListRefundable(ctx, contract.AtTime(time.Unix(1_700_000_000, 0)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, byTime.CommittedAddress, got[0].Record.CommittedAddress)

	created, err := cdb.ListByState(ctx, spend.StateCreated)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, unfunded.CommittedAddress, created[0].Record.CommittedAddress)
}

func TestConcurrentTransition(t *testing.T) {
	cdb := newTestDB(t)
	r, _ := newRecord(t, contract.AtHeight(1_000))
	require.NoError(t, cdb.Insert(ctx, r))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cdb.MarkFunded(ctx, r.CommittedAddress, fundTxID, 0) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
