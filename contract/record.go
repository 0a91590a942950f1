package contract

import (
	"encoding/json"
	"fmt"

	"github.com/TEENet-io/htcl-go/address"
	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/hashlock"
	"github.com/TEENet-io/htcl-go/network"
)

// Record is the persisted form of a contract exchanged with the outside.
// Secret is only present while the secret has not been disclosed.
type Record struct {
	CommittedAddress string `json:"committed_address"`
	Creator          string `json:"creator"`
	Recipient        string `json:"recipient"`
	Timelock         int64  `json:"timelock"`
	Hashlock         string `json:"hashlock"`
	Amount           int64  `json:"amount"`
	Secret           string `json:"secret,omitempty"`
	ProgramHex       string `json:"program_hex"`
}

// ToRecord renders d for persistence. creator funds the contract and
// recipient claims it. A nil secret is left out.
func (d *Descriptor) ToRecord(creator, recipient string, amount int64, secret *hashlock.Secret) *Record {
	r := &Record{
		CommittedAddress: d.address,
		Creator:          creator,
		Recipient:        recipient,
		Timelock:         d.timelock.Value,
		Hashlock:         d.hashlock.String(),
		Amount:           amount,
		ProgramHex:       d.program.Hex(),
	}
	if secret != nil {
		r.Secret = secret.Hex()
	}
	return r
}

// FromRecord rebuilds the descriptor of r and cross-checks every
// redundant field against the program.
func FromRecord(r *Record, params *network.Params) (*Descriptor, error) {
	prog, err := common.DecodeHex(r.ProgramHex)
	if err != nil {
		return nil, err
	}
	d, err := FromProgram(prog, params)
	if err != nil {
		return nil, err
	}

	if err := address.Verify(r.CommittedAddress, prog, params.ScriptHashVersion()); err != nil {
		return nil, fmt.Errorf("%w: committed_address: %v", common.ErrMalformedRecord, err)
	}
	if r.Timelock != d.timelock.Value {
		return nil, fmt.Errorf("%w: timelock=%d, program=%d", common.ErrMalformedRecord, r.Timelock, d.timelock.Value)
	}
	hl, err := hashlock.Parse(r.Hashlock, d.Family())
	if err != nil {
		return nil, err
	}
	if !hl.Equal(d.hashlock) {
		return nil, fmt.Errorf("%w: hashlock=%s, program=%s", common.ErrMalformedRecord, hl, d.hashlock)
	}
	if r.Amount < 0 {
		return nil, common.ErrInvalidParameter("amount", "must not be negative, got %d", r.Amount)
	}
	if r.Secret != "" {
		s, err := hashlock.ParseSecret(r.Secret)
		if err != nil {
			return nil, err
		}
		if !d.hashlock.Verify(s[:]) {
			return nil, fmt.Errorf("%w: stored secret %s", common.ErrSecretMismatch, s)
		}
	}
	return d, nil
}

// RevealedSecret returns the stored secret, if any.
func (r *Record) RevealedSecret() (*hashlock.Secret, error) {
	if r.Secret == "" {
		return nil, nil
	}
	s, err := hashlock.ParseSecret(r.Secret)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Disclosed drops the secret once it is public on chain.
func (r *Record) Disclosed() *Record {
	c := *r
	c.Secret = ""
	return &c
}

func (r *Record) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func UnmarshalRecord(data []byte) (*Record, error) {
	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedRecord, err)
	}
	return r, nil
}
