package hashlock

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/TEENet-io/htcl-go/common"
)

// EVMDerivationPath is m/44'/60'/0'/0/0, the first account of an EVM wallet.
var EVMDerivationPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
	0,
}

// KeyFromHex loads secp256k1 key material from a hex private key.
func KeyFromHex(privKeyHex string) (*ecdsa.PrivateKey, error) {
	key, err := ethcrypto.HexToECDSA(common.Trim0xPrefix(privKeyHex))
	if err != nil {
		return nil, common.ErrInvalidParameter("key_material", "%v", err)
	}
	return key, nil
}

// KeyFromMnemonic loads the key at EVMDerivationPath of a BIP-39 wallet.
func KeyFromMnemonic(mnemonic, passphrase string) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, common.ErrInvalidParameter("key_material", "invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)

	// The extended key version bytes do not affect child derivation.
	k, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	for _, idx := range EVMDerivationPath {
		if k, err = k.Derive(idx); err != nil {
			return nil, err
		}
	}
	priv, err := k.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.ToECDSA(), nil
}
