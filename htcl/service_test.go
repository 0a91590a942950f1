package htcl

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/address"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/config"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/crosschain"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
)

func newService(t *testing.T, edit func(*config.Config)) *Service {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.NetworkName = network.BitcoinRegtest
	if edit != nil {
		edit(cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func newKey(t *testing.T) []byte {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv.PubKey().SerializeCompressed()
}

// 71 byte stand-in, the validator only checks its shape
var sig = bytes.Repeat([]byte{0x30}, 71)

func TestEndToEnd(t *testing.T) {
	s := newService(t, nil)
	claimant, refundee := newKey(t), newKey(t)

	hl, err := hashlock.FromSecret([]byte("s"), s.Family())
	require.NoError(t, err)
	require.Equal(t, 20, hl.Size())

	d, err := s.NewContract(claimant, refundee, 1_000_000, hl)
	require.NoError(t, err)

	// compile is deterministic
	again, err := s.NewContract(claimant, refundee, 1_000_000, hl)
	require.NoError(t, err)
	assert.True(t, d.Program().Equal(again.Program()))
	assert.Equal(t, d.Address(), again.Address())

	assert.NoError(t, s.ValidateClaim(d, []byte("s"), sig, claimant))
	assert.ErrorIs(t, s.ValidateClaim(d, []byte("wrong"), sig, claimant), common.ErrSecretMismatch)
	assert.ErrorIs(t, s.ValidateClaim(d, []byte("s"), sig, refundee), common.ErrKeyMismatch)
	assert.ErrorIs(t, s.ValidateClaim(d, []byte("s"), sig[:10], claimant), common.ErrBadSignature)

	assert.ErrorIs(t, s.ValidateRefund(d, sig, refundee, contract.AtHeight(999_999)), common.ErrTimelockNotReached)
	assert.NoError(t, s.ValidateRefund(d, sig, refundee, contract.AtHeight(1_000_000)))
	assert.ErrorIs(t, s.ValidateRefund(d, sig, claimant, contract.AtHeight(1_000_000)), common.ErrKeyMismatch)

	version, commitment, err := address.Decode(d.Address())
	require.NoError(t, err)
	assert.Equal(t, s.Network().ScriptHashVersion(), version)
	assert.Equal(t, address.Commitment(d.Program()), commitment)

	// the persisted record rebuilds the same contract
	secret, err := hashlock.ParseSecret("0x" + common.ByteSliceToPureHexStr(bytes.Repeat([]byte{1}, 32)))
	require.NoError(t, err)
	rec := d.ToRecord("alice", "bob", 50_000, &secret)
	got, err := s.ContractFromRecord(rec.Disclosed())
	require.NoError(t, err)
	assert.True(t, d.Equal(got))
}

func TestTimeUnitConfig(t *testing.T) {
	s := newService(t, func(c *config.Config) {
		c.TimelockUnit = contract.UnitTime
		c.HashlockFamily = hashlock.FamilyEVM
	})
	_, hl, err := s.NewSecret()
	require.NoError(t, err)
	assert.Equal(t, hashlock.FamilyEVM, hl.Family())

	_, err = s.NewContract(newKey(t), newKey(t), 1_000_000, hl)
	assert.Error(t, err)

	d, err := s.NewContract(newKey(t), newKey(t), 1_700_000_000, hl)
	require.NoError(t, err)
	assert.Equal(t, contract.UnitTime, d.Timelock().Unit)
	assert.ErrorIs(t, s.ValidateRefund(d, sig, d.RefundeeKey(), contract.AtHeight(2_000_000)), common.ErrTimelockUnit)
}

func TestDeriveSecret(t *testing.T) {
	key, err := hashlock.KeyFromHex("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	at := time.Unix(1_700_000_000, 0)

	s := newService(t, nil)
	secret, info, err := s.DeriveSecret(key, at)
	require.NoError(t, err)
	assert.Equal(t, "9b32b896229f98723f3e53e378224ae55e02280167dab11fd578ba4dd9daa1e5", secret.Hex())
	assert.Equal(t, int64(1_699_999_200), info.TimeBucket)

	s = newService(t, func(c *config.Config) { c.SecretMethod = hashlock.MethodHKDF })
	secret, _, err = s.DeriveSecret(key, at)
	require.NoError(t, err)
	assert.Equal(t, "6c7d229f0350478ab174309d5aefb40ad29bbf0814a8cdd8b3cadaeea2b42c33", secret.Hex())
}

func TestSession(t *testing.T) {
	s := newService(t, nil)
	secret, hl, err := s.NewSecret()
	require.NoError(t, err)
	d, err := s.NewContract(newKey(t), newKey(t), 1_100, hl)
	require.NoError(t, err)

	evmLock, err := secret.Hashlock(hashlock.FamilyEVM)
	require.NoError(t, err)
	start := time.Unix(1_700_000_000, 0)
	participant := crosschain.Leg{Ledger: "ethereum", Hashlock: evmLock, Timelock: contract.AtTime(start.Add(4 * time.Hour))}

	session, err := s.NewSession(crosschain.LegOf(s.Network().Name, d, 10*time.Minute), participant)
	require.NoError(t, err)
	err = session.CheckTimelocks(context.Background(),
		crosschain.StaticOracle{Height: 1_000}, crosschain.StaticOracle{Time: start}, time.Hour, start)
	assert.NoError(t, err)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.NetworkName = "litecoin"
	_, err = New(cfg)
	assert.Error(t, err)

	s := newService(t, nil)
	_, err = s.DialNode()
	var perr *common.InvalidParameterError
	assert.ErrorAs(t, err, &perr)

	s = newService(t, func(c *config.Config) {
		c.EthRpcURL = "http://127.0.0.1:8545"
		c.HTLCAddress = "0x1234"
	})
	_, err = s.DialEVM()
	assert.ErrorAs(t, err, &perr)
}

func TestStore(t *testing.T) {
	s := newService(t, nil)
	st, err := s.OpenStore()
	require.NoError(t, err)
	defer st.Close()

	secret, hl, err := s.NewSecret()
	require.NoError(t, err)
	d, err := s.NewContract(newKey(t), newKey(t), 1_000, hl)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Insert(ctx, d.ToRecord("alice", "bob", 50_000, &secret)))
	e, err := st.Get(ctx, d.Address())
	require.NoError(t, err)
	got, err := e.Descriptor(s.Network())
	require.NoError(t, err)
	assert.True(t, d.Equal(got))

	assert.NotNil(t, s.Reporter(st).SetupRouter())
}
