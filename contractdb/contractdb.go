/*
Package contractdb persists contract records and their life cycle in
SQLite (or any database/sql driver with the same dialect).

A record is checked against its program before it is stored, so every
row rebuilds into a descriptor. State only moves forward along
spend.State.Next; each transition is a single conditional UPDATE, so two
writers cannot both move the same contract.
*/
package contractdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/spend"
)

var ErrNotFound = errors.New("contract not found")

// Entry is one stored contract.
type Entry struct {
	Record      *contract.Record
	State       spend.State
	FundingTxID string // empty until funded
	FundingVout uint32
	SpendTxID   string // empty until claimed or refunded
}

// Descriptor rebuilds the contract of e.
func (e *Entry) Descriptor(params *network.Params) (*contract.Descriptor, error) {
	return contract.FromRecord(e.Record, params)
}

type ContractDB struct {
	stmtCache *stmtCache
	network   *network.Params
}

// NewContractDB creates the tables if needed. Records are checked
// against params.
func NewContractDB(db *sql.DB, params *network.Params) (*ContractDB, error) {
	if params == nil {
		return nil, common.ErrInvalidParameter("network", "missing network parameters")
	}
	if _, err := db.Exec(contractTable); err != nil {
		return nil, err
	}
	return &ContractDB{stmtCache: newStmtCache(db), network: params}, nil
}

// Open opens (or creates) a SQLite file. ":memory:" gives a private
// database for one connection.
func Open(path string, params *network.Params) (*ContractDB, *sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	cdb, err := NewContractDB(db, params)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return cdb, db, nil
}

func (cdb *ContractDB) Close() {
	cdb.stmtCache.clear()
}

// Insert stores a new contract in state created.
func (cdb *ContractDB) Insert(ctx context.Context, r *contract.Record) error {
	d, err := contract.FromRecord(r, cdb.network)
	if err != nil {
		return err
	}
	query := `INSERT INTO contract (address, creator, recipient, timelock, hashlock, amount, secret, program, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := cdb.stmtCache.prepare(ctx, query)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx, d.Address(), r.Creator, r.Recipient, r.Timelock, r.Hashlock,
		r.Amount, nullString(r.Secret), []byte(d.Program()), spend.StateCreated.String())
	if err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"address":  d.Address(),
		"timelock": d.Timelock(),
	}).Debug("contract stored")
	return nil
}

const selectEntry = `SELECT address, creator, recipient, timelock, hashlock, amount, secret, program, status,
	fundingTxId, fundingVout, spendTxId FROM contract`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		r                              contract.Record
		program                        []byte
		status                         string
		secret, fundingTxID, spendTxID sql.NullString
		fundingVout                    sql.NullInt64
	)
	if err := row.Scan(&r.CommittedAddress, &r.Creator, &r.Recipient, &r.Timelock, &r.Hashlock, &r.Amount,
		&secret, &program, &status, &fundingTxID, &fundingVout, &spendTxID); err != nil {
		return nil, err
	}
	state, err := spend.ParseState(status)
	if err != nil {
		return nil, err
	}
	r.Secret = secret.String
	r.ProgramHex = common.ByteSliceToPureHexStr(program)
	return &Entry{
		Record:      &r,
		State:       state,
		FundingTxID: fundingTxID.String,
		FundingVout: uint32(fundingVout.Int64),
		SpendTxID:   spendTxID.String,
	}, nil
}

// Get returns the contract at address, or ErrNotFound.
func (cdb *ContractDB) Get(ctx context.Context, address string) (*Entry, error) {
	stmt, err := cdb.stmtCache.prepare(ctx, selectEntry+` WHERE address = ?`)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(stmt.QueryRowContext(ctx, address))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return e, err
}

func (cdb *ContractDB) query(ctx context.Context, query string, args ...interface{}) ([]*Entry, error) {
	stmt, err := cdb.stmtCache.prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByState returns the contracts in state s.
func (cdb *ContractDB) ListByState(ctx context.Context, s spend.State) ([]*Entry, error) {
	return cdb.query(ctx, selectEntry+` WHERE status = ? ORDER BY timelock`, s.String())
}

// ListRefundable returns the funded contracts whose timelock has been
// reached at now (inclusive), in the unit of now.
func (cdb *ContractDB) ListRefundable(ctx context.Context, now contract.Timelock) ([]*Entry, error) {
	cmp := "<"
	if now.Unit == contract.UnitTime {
		cmp = ">="
	}
	return cdb.query(ctx, selectEntry+` WHERE status = ? AND timelock `+cmp+` ? AND timelock <= ? ORDER BY timelock`,
		spend.StateFunded.String(), txscript.LockTimeThreshold, now.Value)
}

// transition moves address from its current state along path. set is
// the extra assignment list, args its values.
func (cdb *ContractDB) transition(ctx context.Context, address string, path common.SpendPath, set string, args ...interface{}) error {
	e, err := cdb.Get(ctx, address)
	if err != nil {
		return err
	}
	next, err := e.State.Next(path)
	if err != nil {
		return fmt.Errorf("%s: %w", address, err)
	}

	stmt, err := cdb.stmtCache.prepare(ctx, `UPDATE contract SET status = ?, `+set+` WHERE address = ? AND status = ?`)
	if err != nil {
		return err
	}
	args = append([]interface{}{next.String()}, args...)
	args = append(args, address, e.State.String())
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		// lost against a concurrent transition
		return fmt.Errorf("%w: %s moved away from %s", spend.ErrInvalidTransition, address, e.State)
	}

	logger.WithFields(logger.Fields{
		"address": address,
		"from":    e.State,
		"to":      next,
	}).Debug("contract state changed")
	return nil
}

// MarkFunded records the funding output of a created contract.
func (cdb *ContractDB) MarkFunded(ctx context.Context, address, txID string, vout uint32) error {
	return cdb.transition(ctx, address, common.PathFunding, `fundingTxId = ?, fundingVout = ?`, txID, vout)
}

// MarkClaimed records the claim of a funded contract. The secret is
// public from then on and is dropped from the row.
func (cdb *ContractDB) MarkClaimed(ctx context.Context, address, txID string) error {
	return cdb.transition(ctx, address, common.PathClaim, `spendTxId = ?, secret = NULL`, txID)
}

// MarkRefunded records the refund of a funded contract.
func (cdb *ContractDB) MarkRefunded(ctx context.Context, address, txID string) error {
	return cdb.transition(ctx, address, common.PathRefund, `spendTxId = ?`, txID)
}

// Count returns the number of contracts in state s.
func (cdb *ContractDB) Count(ctx context.Context, s spend.State) (int64, error) {
	stmt, err := cdb.stmtCache.prepare(ctx, `SELECT COUNT(*) FROM contract WHERE status = ?`)
	if err != nil {
		return 0, err
	}
	var n int64
	err = stmt.QueryRowContext(ctx, s.String()).Scan(&n)
	return n, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
