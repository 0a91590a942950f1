/*
Network parameters for the UTXO ledgers a contract can be committed to.

The only thing the HTCL core needs from a network is its version bytes:
the script-hash marker prepended to the committed address and the
pubkey-hash marker used to decode claim/refund/change addresses.
Bitcoin networks reuse chaincfg. Dogecoin networks are derived from the
bitcoin ones with their own address magic.
*/
package network

import (
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

const (
	BitcoinMainnet  = "bitcoin-mainnet"
	BitcoinTestnet  = "bitcoin-testnet"
	BitcoinRegtest  = "bitcoin-regtest"
	DogecoinMainnet = "dogecoin-mainnet"
	DogecoinTestnet = "dogecoin-testnet"
)

// Params wraps the chaincfg parameters of a network.
type Params struct {
	Name  string
	Chain *chaincfg.Params
}

// ScriptHashVersion is the version byte of a committed (P2SH) address.
func (p *Params) ScriptHashVersion() byte {
	return p.Chain.ScriptHashAddrID
}

// PubKeyHashVersion is the version byte of a plain (P2PKH) address.
func (p *Params) PubKeyHashVersion() byte {
	return p.Chain.PubKeyHashAddrID
}

var (
	DogecoinMainNetParams = dogecoinParams(chaincfg.MainNetParams, "dogecoin", 0xc0c0c0c0, 0x1e, 0x16, 0x9e)
	DogecoinTestNetParams = dogecoinParams(chaincfg.TestNet3Params, "dogecoin-testnet", 0xdcb7c1fc, 0x71, 0xc4, 0xf1)
)

func dogecoinParams(base chaincfg.Params, name string, net wire.BitcoinNet, pkh, sh, wif byte) *chaincfg.Params {
	p := base
	p.Name = name
	p.Net = net
	p.PubKeyHashAddrID = pkh
	p.ScriptHashAddrID = sh
	p.PrivateKeyID = wif
	// dogecoin has no segwit
	p.Bech32HRPSegwit = ""
	return &p
}

var registry = map[string]*Params{
	BitcoinMainnet:  {Name: BitcoinMainnet, Chain: &chaincfg.MainNetParams},
	BitcoinTestnet:  {Name: BitcoinTestnet, Chain: &chaincfg.TestNet3Params},
	BitcoinRegtest:  {Name: BitcoinRegtest, Chain: &chaincfg.RegressionNetParams},
	DogecoinMainnet: {Name: DogecoinMainnet, Chain: DogecoinMainNetParams},
	DogecoinTestnet: {Name: DogecoinTestnet, Chain: DogecoinTestNetParams},
}

// ByName returns the parameters of a known network.
func ByName(name string) (*Params, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown network: name=%s, known=%v", name, Names())
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func MainNetParams() *Params {
	return registry[BitcoinMainnet]
}

func RegtestParams() *Params {
	return registry[BitcoinRegtest]
}
