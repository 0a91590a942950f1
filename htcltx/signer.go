package htcltx

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/script"
)

// Basic single private key signer. It stands in for the external signer:
// nothing else in this module touches a private key.
type BasicSigner struct {
	ChainConfig *chaincfg.Params  // which chain the key belongs to
	PrivKey     *btcec.PrivateKey // private key
	PubKey      *btcec.PublicKey  // public key accordingly
}

// DecodeWIF decodes a string private key to *btcutil.WIF
func DecodeWIF(privKeyStr string) (*btcutil.WIF, error) {
	decoded := base58.Decode(privKeyStr)
	if len(decoded) == 0 {
		return nil, errors.New("invalid private key string (cannot pass base58 decode)")
	}

	wif, err := btcutil.DecodeWIF(privKeyStr)
	if err != nil {
		return nil, err
	}

	return wif, nil
}

// Recover a basic signer from
// private key string (aka wallet-import-format, WIF)
// This is the standard private key string that bitcoin-core software exports.
func NewBasicSigner(privKeyWIF string, params *network.Params) (*BasicSigner, error) {
	wif, err := DecodeWIF(privKeyWIF)
	if err != nil {
		return nil, common.ErrInvalidParameter("private_key", "%v", err)
	}
	if !wif.IsForNet(params.Chain) {
		return nil, common.ErrInvalidParameter("private_key", "key is not for %s", params.Name)
	}
	return &BasicSigner{params.Chain, wif.PrivKey, wif.PrivKey.PubKey()}, nil
}

// PubKeyBytes is the compressed public key, the form a contract commits to.
func (s *BasicSigner) PubKeyBytes() []byte {
	return s.PubKey.SerializeCompressed()
}

// Address is the P2PKH address of the key.
func (s *BasicSigner) Address() (*btcutil.AddressPubKeyHash, error) {
	return btcutil.NewAddressPubKeyHash(btcutil.Hash160(s.PubKeyBytes()), s.ChainConfig)
}

// SignFunding signs every funding input, each of which must be a P2PKH
// output of this key.
func (s *BasicSigner) SignFunding(r *Record) error {
	sigScripts := make([][]byte, len(r.prevOutputs))
	for idx, item := range r.prevOutputs {
		sigScript, err := txscript.SignatureScript(r.tx, idx, item.PkScript, txscript.SigHashAll, s.PrivKey, true)
		if err != nil {
			return err
		}
		sigScripts[idx] = sigScript
	}
	return r.attachFundingWitness(sigScripts)
}

// SignSpend signs the contract input of a claim or refund over the
// program and attaches the signature. The key must be the one the
// program expects on that path.
func (s *BasicSigner) SignSpend(r *Record) error {
	parsed, err := script.ParseProgram(r.program)
	if err != nil {
		return err
	}
	want := parsed.ClaimantKey
	if r.path == common.PathRefund {
		want = parsed.RefundeeKey
	}
	if !bytes.Equal(want, s.PubKeyBytes()) {
		return common.ErrInvalidSpend(r.path, common.ErrKeyMismatch, "signer key=%x", s.PubKeyBytes())
	}

	sig, err := txscript.RawTxInSignature(r.tx, 0, r.program, txscript.SigHashAll, s.PrivKey)
	if err != nil {
		return err
	}
	return r.AttachWitness(sig)
}
