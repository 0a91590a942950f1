// Package config loads the settings of an HTCL service from a file and
// HTCL_* environment variables.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/spend"
)

const EnvPrefix = "HTCL"

const (
	KeyNetwork         = "network"
	KeyHashlockFamily  = "hashlock_family"
	KeyTimelockUnit    = "timelock_unit"
	KeySecretBucket    = "secret_bucket"
	KeySecretMethod    = "secret_method"
	KeyMinSignatureLen = "min_signature_len"
	KeyMaxSignatureLen = "max_signature_len"
	KeyRequireDER      = "require_der"
	KeyLogLevel        = "log_level"

	KeyBtcRpcServer   = "btc_rpc_server"
	KeyBtcRpcPort     = "btc_rpc_port"
	KeyBtcRpcUsername = "btc_rpc_username"
	KeyBtcRpcPwd      = "btc_rpc_pwd"
	KeyEthRpcURL      = "eth_rpc_url"
	KeyHTLCAddress    = "htlc_contract_address"

	KeyDBPath   = "db_path"
	KeyHttpIP   = "http_ip"
	KeyHttpPort = "http_port"
)

type Config struct {
	NetworkName     string
	HashlockFamily  hashlock.Family
	TimelockUnit    contract.Unit
	SecretBucket    time.Duration
	SecretMethod    hashlock.Method
	MinSignatureLen int
	MaxSignatureLen int
	RequireDER      bool
	LogLevel        string

	BtcRpcServer   string
	BtcRpcPort     string
	BtcRpcUsername string
	BtcRpcPwd      string
	EthRpcURL      string
	HTLCAddress    string

	DBPath   string // sqlite file of the contract store, ":memory:" for none
	HttpIP   string
	HttpPort string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyNetwork, network.BitcoinMainnet)
	v.SetDefault(KeyHashlockFamily, hashlock.FamilyUTXO.String())
	v.SetDefault(KeyTimelockUnit, contract.UnitHeight.String())
	v.SetDefault(KeySecretBucket, hashlock.DefaultBucketInterval)
	v.SetDefault(KeySecretMethod, string(hashlock.MethodHMAC))
	v.SetDefault(KeyMinSignatureLen, spend.DefaultMinSignatureLen)
	v.SetDefault(KeyMaxSignatureLen, spend.DefaultMaxSignatureLen)
	v.SetDefault(KeyRequireDER, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyBtcRpcPort, "18443")
	v.SetDefault(KeyDBPath, ":memory:")
	v.SetDefault(KeyHttpIP, "127.0.0.1")
	v.SetDefault(KeyHttpPort, "8080")
	return v
}

// Default returns the defaults, with HTCL_* environment overrides.
func Default() (*Config, error) {
	return fromViper(newViper())
}

// Load reads a yaml, json or toml file, then applies HTCL_* environment
// overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	family, err := hashlock.ParseFamily(v.GetString(KeyHashlockFamily))
	if err != nil {
		return nil, err
	}
	unit, err := contract.ParseUnit(v.GetString(KeyTimelockUnit))
	if err != nil {
		return nil, err
	}
	method, err := hashlock.ParseMethod(v.GetString(KeySecretMethod))
	if err != nil {
		return nil, err
	}
	c := &Config{
		NetworkName:     v.GetString(KeyNetwork),
		HashlockFamily:  family,
		TimelockUnit:    unit,
		SecretBucket:    v.GetDuration(KeySecretBucket),
		SecretMethod:    method,
		MinSignatureLen: v.GetInt(KeyMinSignatureLen),
		MaxSignatureLen: v.GetInt(KeyMaxSignatureLen),
		RequireDER:      v.GetBool(KeyRequireDER),
		LogLevel:        v.GetString(KeyLogLevel),

		BtcRpcServer:   v.GetString(KeyBtcRpcServer),
		BtcRpcPort:     v.GetString(KeyBtcRpcPort),
		BtcRpcUsername: v.GetString(KeyBtcRpcUsername),
		BtcRpcPwd:      v.GetString(KeyBtcRpcPwd),
		EthRpcURL:      v.GetString(KeyEthRpcURL),
		HTLCAddress:    v.GetString(KeyHTLCAddress),

		DBPath:   v.GetString(KeyDBPath),
		HttpIP:   v.GetString(KeyHttpIP),
		HttpPort: v.GetString(KeyHttpPort),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if _, err := network.ByName(c.NetworkName); err != nil {
		return err
	}
	if c.MinSignatureLen <= 0 || c.MaxSignatureLen < c.MinSignatureLen {
		return common.ErrInvalidParameter(KeyMinSignatureLen, "bad signature length bounds [%d, %d]",
			c.MinSignatureLen, c.MaxSignatureLen)
	}
	if _, err := hashlock.NewDeriver(c.SecretBucket, c.SecretMethod); err != nil {
		return err
	}
	if c.DBPath == "" {
		return common.ErrInvalidParameter(KeyDBPath, "must not be empty")
	}
	return nil
}

func (c *Config) Network() (*network.Params, error) {
	return network.ByName(c.NetworkName)
}

func (c *Config) SignaturePolicy() spend.SignaturePolicy {
	return spend.SignaturePolicy{
		MinLen:     c.MinSignatureLen,
		MaxLen:     c.MaxSignatureLen,
		RequireDER: c.RequireDER,
	}
}

func (c *Config) Deriver() (*hashlock.Deriver, error) {
	return hashlock.NewDeriver(c.SecretBucket, c.SecretMethod)
}
