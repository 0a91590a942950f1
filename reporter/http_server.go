// This is a http type of reporter.
// It fetches contracts from contractdb
// and publishes them on the http routes.

package reporter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TEENet-io/htcl-go/common"
	"github.com/TEENet-io/htcl-go/contract"
	"github.com/TEENet-io/htcl-go/contractdb"
	"github.com/TEENet-io/htcl-go/network"
	"github.com/TEENet-io/htcl-go/spend"
)

const (
	ROUTE_HELLO     = "/hello"
	ROUTE_CONTRACT  = "/contract"
	ROUTE_CONTRACTS = "/contracts"
	ROUTE_AUDIT     = "/audit"
)

// ContractView is the public form of a stored contract. The secret is
// never published.
type ContractView struct {
	*contract.Record
	State       string `json:"state"`
	FundingTxID string `json:"funding_tx_id,omitempty"`
	FundingVout uint32 `json:"funding_vout"`
	SpendTxID   string `json:"spend_tx_id,omitempty"`
}

func viewOf(e *contractdb.Entry) ContractView {
	return ContractView{
		Record:      e.Record.Disclosed(),
		State:       e.State.String(),
		FundingTxID: e.FundingTxID,
		FundingVout: e.FundingVout,
		SpendTxID:   e.SpendTxID,
	}
}

// AuditView describes a program submitted for audit.
type AuditView struct {
	Address     string `json:"address"`
	ClaimantKey string `json:"claimant_key"`
	RefundeeKey string `json:"refundee_key"`
	Hashlock    string `json:"hashlock"`
	Family      string `json:"family"`
	Timelock    int64  `json:"timelock"`
	Unit        string `json:"unit"`
	Asm         string `json:"asm"`
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data source
	contractdb *contractdb.ContractDB
	network    *network.Params
}

func NewHttpReporter(serverIP string, serverPort string, cdb *contractdb.ContractDB, params *network.Params) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		contractdb: cdb,
		network:    params,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_CONTRACT, h.Contract)
	router.GET(ROUTE_CONTRACTS, h.Contracts)
	router.GET(ROUTE_AUDIT, h.Audit)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() error {
	router := h.SetupRouter()
	return router.Run(h.serverIP + ":" + h.serverPort)
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

// Contract publishes one contract by its committed address.
func (h *HttpReporter) Contract(c *gin.Context) {
	addr := c.Query("address")
	if addr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address must be provided"})
		return
	}

	e, err := h.contractdb.Get(c.Request.Context(), addr)
	if errors.Is(err, contractdb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No contract found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewOf(e)})
}

// Contracts publishes the contracts in one state, funded by default.
func (h *HttpReporter) Contracts(c *gin.Context) {
	s, err := spend.ParseState(c.DefaultQuery("state", spend.StateFunded.String()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.contractdb.ListByState(c.Request.Context(), s)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	views := make([]ContractView, 0, len(entries))
	for _, e := range entries {
		views = append(views, viewOf(e))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

// Audit decodes a program received from a counterparty. Nothing is
// stored.
func (h *HttpReporter) Audit(c *gin.Context) {
	prog, err := common.DecodeHex(c.Query("program"))
	if err != nil || len(prog) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "program must be a hex string"})
		return
	}
	d, err := contract.FromProgram(prog, h.network)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	asm, err := d.Program().Disassemble()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": AuditView{
		Address:     d.Address(),
		ClaimantKey: common.ByteSliceToPureHexStr(d.ClaimantKey()),
		RefundeeKey: common.ByteSliceToPureHexStr(d.RefundeeKey()),
		Hashlock:    d.Hashlock().String(),
		Family:      d.Family().String(),
		Timelock:    d.Timelock().Value,
		Unit:        d.Timelock().Unit.String(),
		Asm:         asm,
	}})
}
