// HtclUser presents an entity that
// 1) Creates secrets and compiles contracts
// 2) Audits contracts received from a counterparty
// 3) Keeps its contracts in a local store
// 4) Funds contracts from its own key through a node (optional)

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/chainrpc"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/contractdb"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/htcl"
	"github.com/TEENet-io/htcl-go/htcltx"
	"github.com/TEENet-io/htcl-go/spend"
)

const (
	BLK_MATURE_OFFSET       = 1 // if a block is BLK_MATURE_OFFSET blocks old, we consider safe.
	REGTEST_GENERATE_BLOCKS = 101 // Generate 101 blocks in regest.
	FEE_RATE_SATOSHI        = 20  // satoshi per byte
)

var ErrOffline = errors.New("no node configured")

type HtclUser struct {
	Service   *htcl.Service
	Store     *htcl.Store         // contracts this user created or funded
	RpcClient *chainrpc.RpcClient // nil when offline
	Signer    *htcltx.BasicSigner // nil without a key
}

// NewHtclUser creates a user. wif may be empty for a user that only
// compiles and audits. online dials the configured node.
func NewHtclUser(svc *htcl.Service, wif string, online bool) (*HtclUser, error) {
	store, err := svc.OpenStore()
	if err != nil {
		return nil, err
	}
	u := &HtclUser{Service: svc, Store: store}
	if wif != "" {
		signer, err := htcltx.NewBasicSigner(wif, svc.Network())
		if err != nil {
			logger.WithField("network", svc.Network().Name).Error("cannot create signer from private key")
			u.Close()
			return nil, err
		}
		u.Signer = signer
	}
	if online {
		client, err := svc.DialNode()
		if err != nil {
			u.Close()
			return nil, err
		}
		u.RpcClient = client
	}
	return u, nil
}

func (u *HtclUser) Close() {
	if u.RpcClient != nil {
		u.RpcClient.Close()
	}
	if err := u.Store.Close(); err != nil {
		logger.WithError(err).Error("cannot close contract store")
	}
}

// CompileContract compiles a contract from text inputs. Keys are hex
// compressed public keys, the hashlock is raw or 0x hex.
func (u *HtclUser) CompileContract(claimantHex, refundeeHex string, timelock int64, hashlockText string) (*contract.Descriptor, error) {
	claimant, err := common.DecodeHex(claimantHex)
	if err != nil {
		return nil, err
	}
	refundee, err := common.DecodeHex(refundeeHex)
	if err != nil {
		return nil, err
	}
	hl, err := hashlock.Parse(hashlockText, u.Service.Family())
	if err != nil {
		return nil, err
	}
	return u.Service.NewContract(claimant, refundee, timelock, hl)
}

// SaveContract keeps d in the user's store. The secret is kept while it
// is undisclosed and may be nil for a contract the user only funds.
func (u *HtclUser) SaveContract(ctx context.Context, d *contract.Descriptor, creator, recipient string, amount int64, secret *hashlock.Secret) error {
	return u.Store.Insert(ctx, d.ToRecord(creator, recipient, amount, secret))
}

// Contracts lists the stored contracts in one state.
func (u *HtclUser) Contracts(ctx context.Context, state string) ([]*contractdb.Entry, error) {
	s, err := spend.ParseState(state)
	if err != nil {
		return nil, err
	}
	return u.Store.ListByState(ctx, s)
}

// Audit recovers the contract behind a program received from a
// counterparty, with its disassembly.
func (u *HtclUser) Audit(programHex string) (*contract.Descriptor, string, error) {
	prog, err := common.DecodeHex(programHex)
	if err != nil {
		return nil, "", err
	}
	d, err := contract.FromProgram(prog, u.Service.Network())
	if err != nil {
		return nil, "", err
	}
	asm, err := d.Program().Disassemble()
	if err != nil {
		return nil, "", err
	}
	return d, asm, nil
}

// ConvertHashlock rewrites a hashlock as "raw" or "prefixed".
func ConvertHashlock(text, target string) (string, error) {
	switch target {
	case "raw":
		return hashlock.ToRaw(text)
	case "prefixed":
		return hashlock.ToPrefixed(text)
	}
	return "", fmt.Errorf("unknown representation %q, want raw or prefixed", target)
}

func (u *HtclUser) address() (btcutil.Address, error) {
	if u.Signer == nil {
		return nil, errors.New("no private key configured")
	}
	addr, err := u.Signer.Address()
	if err != nil {
		return nil, err
	}
	return addr, nil
}

func (u *HtclUser) GetBalance() (int64, error) {
	if u.RpcClient == nil {
		return 0, ErrOffline
	}
	addr, err := u.address()
	if err != nil {
		return 0, err
	}
	return u.RpcClient.GetBalance(addr, BLK_MATURE_OFFSET)
}

// FundContract pays amount satoshi from the user's key to d, with the
// change going back to the user.
func (u *HtclUser) FundContract(d *contract.Descriptor, amount int64) (string, error) {
	if u.RpcClient == nil {
		return "", ErrOffline
	}
	addr, err := u.address()
	if err != nil {
		return "", err
	}
	utxos, err := u.RpcClient.GetUtxoList(addr, BLK_MATURE_OFFSET)
	if err != nil {
		return "", err
	}

	// pick outputs until amount plus the fee for that many inputs is covered
	var (
		picked []*htcltx.UTXO
		sum    int64
		fee    int64
	)
	for _, utxo := range utxos {
		picked = append(picked, utxo)
		sum += utxo.Amount
		fee = htcltx.EstimateFee(len(picked), 2, FEE_RATE_SATOSHI)
		if sum >= amount+fee {
			break
		}
	}

	rec, err := u.Service.Builder().BuildFunding(d, amount, fee, picked, addr.EncodeAddress())
	if err != nil {
		return "", err
	}
	if err := u.Signer.SignFunding(rec); err != nil {
		return "", err
	}
	if err := u.Service.Validator().ValidateFunding(d, rec); err != nil {
		return "", err
	}
	txHash, err := u.RpcClient.SendRecord(rec)
	if err != nil {
		return "", err
	}

	// the contract output is always the first one
	err = u.Store.MarkFunded(context.Background(), d.Address(), txHash.String(), 0)
	if err != nil && !errors.Is(err, contractdb.ErrNotFound) {
		logger.WithError(err).WithField("address", d.Address()).Warn("funded contract not updated in store")
	}
	return txHash.String(), nil
}

// MineBlocks mines to the user's address (regtest).
func (u *HtclUser) MineBlocks(n int64) (int, error) {
	if u.RpcClient == nil {
		return 0, ErrOffline
	}
	addr, err := u.address()
	if err != nil {
		return 0, err
	}
	hashes, err := u.RpcClient.GenerateBlocks(n, addr)
	return len(hashes), err
}
