package cmd

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/config"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/htcl"
	"github.com/TEENet-io/htcl-go/network"
)

// Represents a user's wallet on regtest
const p2_legacy_priv_key_str = "cQthTMaKUU9f6br1hMXdGFXHwGaAfFFerNkn632BpGE6KXhTMmGY"

func newOfflineUser(t *testing.T, wif string) *HtclUser {
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.NetworkName = network.BitcoinRegtest
	svc, err := htcl.New(cfg)
	require.NoError(t, err)
	u, err := NewHtclUser(svc, wif, false)
	require.NoError(t, err)
	return u
}

func pubKeyHex(t *testing.T) string {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return common.ByteSliceToPureHexStr(priv.PubKey().SerializeCompressed())
}

func TestCompileAndAudit(t *testing.T) {
	u := newOfflineUser(t, "")
	defer u.Close()

	claimant, refundee := pubKeyHex(t), pubKeyHex(t)
	d, err := u.CompileContract(claimant, refundee, 1_000_000, "e84b4bdca61c78392181ff370ab426bf2c437730")
	require.NoError(t, err)

	audited, asm, err := u.Audit(d.Program().Hex())
	require.NoError(t, err)
	assert.True(t, d.Equal(audited))
	assert.Contains(t, asm, "OP_HASH160 e84b4bdca61c78392181ff370ab426bf2c437730")
	assert.Contains(t, asm, "OP_CHECKLOCKTIMEVERIFY")

	_, err = u.CompileContract(claimant, refundee, 1_000_000, "0x043a718774c572bd8a25adbeb1bfcd5c0256ae11cecf9f9c3f925d0e52beaf89")
	assert.Error(t, err, "a sha256 lock is not a utxo family hashlock")

	_, _, err = u.Audit("76a9")
	assert.Error(t, err)
	_, _, err = u.Audit("zz")
	assert.Error(t, err)
}

func TestConvertHashlock(t *testing.T) {
	out, err := ConvertHashlock("e84b4bdca61c78392181ff370ab426bf2c437730", "prefixed")
	require.NoError(t, err)
	assert.Equal(t, "0xe84b4bdca61c78392181ff370ab426bf2c437730", out)

	out, err = ConvertHashlock(out, "raw")
	require.NoError(t, err)
	assert.Equal(t, "e84b4bdca61c78392181ff370ab426bf2c437730", out)

	_, err = ConvertHashlock(out, "base64")
	assert.Error(t, err)
}

func TestOffline(t *testing.T) {
	u := newOfflineUser(t, p2_legacy_priv_key_str)
	defer u.Close()
	require.NotNil(t, u.Signer)

	_, err := u.GetBalance()
	assert.ErrorIs(t, err, ErrOffline)
	_, err = u.MineBlocks(1)
	assert.ErrorIs(t, err, ErrOffline)

	d, err := u.CompileContract(pubKeyHex(t), pubKeyHex(t), 1_000_000, "e84b4bdca61c78392181ff370ab426bf2c437730")
	require.NoError(t, err)
	_, err = u.FundContract(d, 100_000)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestWrongNetworkKey(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	svc, err := htcl.New(cfg)
	require.NoError(t, err)
	_, err = NewHtclUser(svc, p2_legacy_priv_key_str, false)
	assert.Error(t, err)
}

func TestSaveContract(t *testing.T) {
	u := newOfflineUser(t, "")
	defer u.Close()
	ctx := context.Background()

	secret, hl, err := u.Service.NewSecret()
	require.NoError(t, err)
	d, err := u.CompileContract(pubKeyHex(t), pubKeyHex(t), 1_000_000, hl.String())
	require.NoError(t, err)
	require.NoError(t, u.SaveContract(ctx, d, "alice", "bob", 100_000, &secret))

	entries, err := u.Contracts(ctx, "created")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, d.Address(), entries[0].Record.CommittedAddress)

	_, err = u.Contracts(ctx, "lost")
	assert.Error(t, err)

	other, err := hashlock.GenerateRandomSecret()
	require.NoError(t, err)
	assert.Error(t, u.SaveContract(ctx, d, "alice", "bob", 100_000, &other), "secret does not open the hashlock")
}
