package contractdb

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// table that stores the life cycle of a contract, keyed by its
	// committed address
	contractTable = `CREATE TABLE IF NOT EXISTS contract (
		address VARCHAR(40) PRIMARY KEY NOT NULL,
		creator TEXT NOT NULL,
		recipient TEXT NOT NULL,
		timelock BIGINT NOT NULL,
		hashlock VARCHAR(66) NOT NULL,
		amount BIGINT NOT NULL,
		secret CHAR(64),
		program BLOB NOT NULL,
		status VARCHAR(24) NOT NULL,
		fundingTxId CHAR(64),
		fundingVout INTEGER,
		spendTxId CHAR(64),
		CONSTRAINT chk_status CHECK (status IN ('created', 'funded', 'claimed_by_secret', 'refunded_after_expiry')),
		CONSTRAINT chk_amount CHECK (amount >= 0),
		CONSTRAINT chk_timelock CHECK (timelock > 0),
		CONSTRAINT chk_fundingTxId CHECK (fundingTxId IS NULL OR fundingTxId != '` + strZeroBytes32 + `'),
		CONSTRAINT chk_spendTxId CHECK (spendTxId IS NULL OR spendTxId != '` + strZeroBytes32 + `')
	);
	CREATE INDEX IF NOT EXISTS idx_contract_status ON contract (status);`
)
