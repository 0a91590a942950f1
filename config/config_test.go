package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/spend"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, network.BitcoinMainnet, c.NetworkName)
	assert.Equal(t, hashlock.FamilyUTXO, c.HashlockFamily)
	assert.Equal(t, contract.UnitHeight, c.TimelockUnit)
	assert.Equal(t, time.Hour, c.SecretBucket)
	assert.Equal(t, hashlock.MethodHMAC, c.SecretMethod)
	assert.Equal(t, spend.DefaultSignaturePolicy(), c.SignaturePolicy())
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ":memory:", c.DBPath)
	assert.Equal(t, "8080", c.HttpPort)

	params, err := c.Network()
	require.NoError(t, err)
	assert.Equal(t, network.MainNetParams(), params)
}

func writeConfig(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "htcl.yaml", `
network: dogecoin-testnet
hashlock_family: evm
timelock_unit: time
secret_bucket: 30m
secret_method: hkdf_sha256
min_signature_len: 70
require_der: true
log_level: debug
eth_rpc_url: http://127.0.0.1:8545
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, network.DogecoinTestnet, c.NetworkName)
	assert.Equal(t, hashlock.FamilyEVM, c.HashlockFamily)
	assert.Equal(t, contract.UnitTime, c.TimelockUnit)
	assert.Equal(t, spend.SignaturePolicy{MinLen: 70, MaxLen: 73, RequireDER: true}, c.SignaturePolicy())
	assert.Equal(t, "http://127.0.0.1:8545", c.EthRpcURL)

	d, err := c.Deriver()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d.Interval)
	assert.Equal(t, hashlock.MethodHKDF, d.Method)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "htcl.json", `{"network": "bitcoin-testnet", "log_level": "warn"}`)
	t.Setenv("HTCL_NETWORK", "bitcoin-regtest")
	t.Setenv("HTCL_MAX_SIGNATURE_LEN", "72")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, network.BitcoinRegtest, c.NetworkName)
	assert.Equal(t, 72, c.MaxSignatureLen)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestInvalid(t *testing.T) {
	tests := map[string]string{
		"network": "network: litecoin\n",
		"family":  "hashlock_family: md5\n",
		"unit":    "timelock_unit: epochs\n",
		"method":  "secret_method: pbkdf2\n",
		"bounds":  "min_signature_len: 80\nmax_signature_len: 70\n",
		"bucket":  "secret_bucket: 10ms\n",
		"db":      "db_path: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "htcl.yaml", content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
