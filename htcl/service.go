/*
Package htcl is the thin layer an application talks to. It turns a
config.Config into the network, signature policy, secret deriver,
builders and validators the core packages need, and dials the node
clients of a session.

The core packages stay usable on their own. Service only fixes their
parameters once.
*/
package htcl

import (
	"crypto/ecdsa"
	"database/sql"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/chainrpc"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/config"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/contractdb"
	"github.com/TEENet-io/htcl-go/crosschain"
	"github.com/TEENet-io/htcl-go/evmhtcl"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/htcltx"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/reporter"
	"github.com/TEENet-io/htcl-go/spend"
)

type Service struct {
	cfg       *config.Config
	network   *network.Params
	deriver   *hashlock.Deriver
	spend     *spend.Validator
	builder   *htcltx.Builder
	validator *htcltx.Validator
}

// New validates cfg and prepares the collaborators. A Service holds no
// mutable state and may be shared between goroutines.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, common.ErrInvalidParameter("config", "missing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := cfg.Network()
	if err != nil {
		return nil, err
	}
	deriver, err := cfg.Deriver()
	if err != nil {
		return nil, err
	}
	sv := spend.NewValidator(cfg.SignaturePolicy())

	logger.WithFields(logger.Fields{
		"network":    params.Name,
		"family":     cfg.HashlockFamily,
		"unit":       cfg.TimelockUnit,
		"derivation": deriver.Method,
	}).Debug("htcl service ready")

	return &Service{
		cfg:       cfg,
		network:   params,
		deriver:   deriver,
		spend:     sv,
		builder:   htcltx.NewBuilder(sv),
		validator: htcltx.NewValidator(sv),
	}, nil
}

func (s *Service) Config() config.Config       { return *s.cfg }
func (s *Service) Network() *network.Params     { return s.network }
func (s *Service) Spend() *spend.Validator      { return s.spend }
func (s *Service) Builder() *htcltx.Builder     { return s.builder }
func (s *Service) Validator() *htcltx.Validator { return s.validator }
func (s *Service) Family() hashlock.Family      { return s.cfg.HashlockFamily }

// NewSecret draws a random secret and its hashlock in the configured
// family.
func (s *Service) NewSecret() (hashlock.Secret, hashlock.Hashlock, error) {
	secret, err := hashlock.GenerateRandomSecret()
	if err != nil {
		return hashlock.Secret{}, hashlock.Hashlock{}, err
	}
	hl, err := secret.Hashlock(s.cfg.HashlockFamily)
	if err != nil {
		return hashlock.Secret{}, hashlock.Hashlock{}, err
	}
	return secret, hl, nil
}

// DeriveSecret reproduces the secret of key for the time bucket of at.
func (s *Service) DeriveSecret(key *ecdsa.PrivateKey, at time.Time) (hashlock.Secret, *hashlock.DerivationInfo, error) {
	return s.deriver.Derive(key, at)
}

// NewContract compiles a contract on the configured network. timelock is
// read in the configured unit.
func (s *Service) NewContract(claimantKey, refundeeKey []byte, timelock int64, hl hashlock.Hashlock) (*contract.Descriptor, error) {
	tl, err := contract.NewTimelock(timelock, s.cfg.TimelockUnit)
	if err != nil {
		return nil, err
	}
	return contract.New(contract.Params{
		ClaimantKey: claimantKey,
		RefundeeKey: refundeeKey,
		Timelock:    tl,
		Hashlock:    hl,
		Network:     s.network,
	})
}

// ContractFromRecord rebuilds a persisted contract on the configured
// network.
func (s *Service) ContractFromRecord(r *contract.Record) (*contract.Descriptor, error) {
	return contract.FromRecord(r, s.network)
}

func (s *Service) ValidateClaim(d *contract.Descriptor, secret, sig, key []byte) error {
	return s.spend.ValidateClaim(d, secret, sig, key)
}

func (s *Service) ValidateRefund(d *contract.Descriptor, sig, key []byte, now contract.Timelock) error {
	return s.spend.ValidateRefund(d, sig, key, now)
}

// NewSession pairs the two legs of a swap.
func (s *Service) NewSession(initiator, participant crosschain.Leg) (*crosschain.Session, error) {
	return crosschain.NewSession(initiator, participant)
}

// DialNode connects to the bitcoin node of the config.
func (s *Service) DialNode() (*chainrpc.RpcClient, error) {
	if s.cfg.BtcRpcServer == "" {
		return nil, common.ErrInvalidParameter(config.KeyBtcRpcServer, "not configured")
	}
	return chainrpc.NewRpcClient(&chainrpc.RpcClientConfig{
		ServerAddr: s.cfg.BtcRpcServer,
		Port:       s.cfg.BtcRpcPort,
		Username:   s.cfg.BtcRpcUsername,
		Pwd:        s.cfg.BtcRpcPwd,
	})
}

// DialEVM connects to the ethereum node and HashedTimelock of the config.
func (s *Service) DialEVM() (*evmhtcl.Watcher, error) {
	if s.cfg.EthRpcURL == "" {
		return nil, common.ErrInvalidParameter(config.KeyEthRpcURL, "not configured")
	}
	if !ethcommon.IsHexAddress(s.cfg.HTLCAddress) {
		return nil, common.ErrInvalidParameter(config.KeyHTLCAddress, "bad address %q", s.cfg.HTLCAddress)
	}
	return evmhtcl.NewWatcher(s.cfg.EthRpcURL, ethcommon.HexToAddress(s.cfg.HTLCAddress))
}

// Store is an open contract store with the database behind it.
type Store struct {
	*contractdb.ContractDB
	db *sql.DB
}

func (st *Store) Close() error {
	st.ContractDB.Close()
	return st.db.Close()
}

// OpenStore opens the contract store of the config.
func (s *Service) OpenStore() (*Store, error) {
	cdb, db, err := contractdb.Open(s.cfg.DBPath, s.network)
	if err != nil {
		return nil, err
	}
	return &Store{cdb, db}, nil
}

// Reporter publishes st on the http address of the config.
func (s *Service) Reporter(st *Store) *reporter.HttpReporter {
	return reporter.NewHttpReporter(s.cfg.HttpIP, s.cfg.HttpPort, st.ContractDB, s.network)
}
