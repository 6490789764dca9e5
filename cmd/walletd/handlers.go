package main

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gin-gonic/gin"

	"github.com/ai-wallet-labs/delegation-wallet/internal/authoritystore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/coordinator"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/peer"
	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
)

// Handler exposes the Coordinator's public API as JSON endpoints.
type Handler struct {
	co *coordinator.Coordinator
}

func NewHandler(co *coordinator.Coordinator) *Handler {
	return &Handler{co: co}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) InitializeKeyring(c *gin.Context) {
	var req struct {
		Kind     string `json:"kind"`
		Mnemonic string `json:"mnemonic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.co.InitializeKeyring(c.Request.Context(), keyholder.InitOptions{
		Kind:     keyholder.Kind(req.Kind),
		Mnemonic: req.Mnemonic,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"initialized": true})
}

func (h *Handler) GetAccounts(c *gin.Context) {
	accounts := h.co.GetAccounts()
	out := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, gin.H{"address": a.Address.Hex(), "index": a.Index})
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

func (h *Handler) ConfigureProvider(c *gin.Context) {
	var req struct {
		ChainID int64  `json:"chainId"`
		RPCURL  string `json:"rpcUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.co.ConfigureProvider(c.Request.Context(), chaingateway.ChainConfig{ChainID: req.ChainID, RPCURL: req.RPCURL})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func (h *Handler) ConfigureBundler(c *gin.Context) {
	var req struct {
		URL        string `json:"url"`
		EntryPoint string `json:"entryPoint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.co.ConfigureBundler(c.Request.Context(), chaingateway.BundlerConfig{URL: req.URL, EntryPoint: req.EntryPoint})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": true})
}

func (h *Handler) GetCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, h.co.GetCapabilities())
}

func (h *Handler) CreateSmartAccount(c *gin.Context) {
	var req struct {
		Kind       string `json:"kind"`
		DeploySalt string `json:"deploySalt"`
		Address    string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	salt, ok := new(big.Int).SetString(req.DeploySalt, 10)
	if !ok {
		salt = big.NewInt(0)
	}
	sa, err := h.co.CreateSmartAccount(c.Request.Context(), coordinator.SmartAccountKind(req.Kind), salt, common.HexToAddress(req.Address))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": sa.Kind, "address": sa.Address.Hex()})
}

func (h *Handler) GetSmartAccountAddress(c *gin.Context) {
	addr, ok := h.co.GetSmartAccountAddress()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no smart account configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": addr.Hex()})
}

type caveatJSON struct {
	Enforcer string `json:"enforcer"`
	Terms    string `json:"terms"`
	Type     string `json:"type"`
}

func decodeCaveats(in []caveatJSON) ([]caveat.Caveat, error) {
	out := make([]caveat.Caveat, 0, len(in))
	for _, cj := range in {
		terms, err := hexutil.Decode(cj.Terms)
		if err != nil {
			return nil, err
		}
		out = append(out, caveat.Caveat{
			Enforcer: common.HexToAddress(cj.Enforcer),
			Terms:    terms,
			Type:     caveat.Kind(cj.Type),
		})
	}
	return out, nil
}

func delegationJSON(d delegation.Delegation) gin.H {
	return gin.H{
		"id":        hexutil.Encode(d.ID[:]),
		"delegator": d.Delegator.Hex(),
		"delegate":  d.Delegate.Hex(),
		"authority": hexutil.Encode(d.Authority[:]),
		"chainId":   d.ChainID,
		"status":    d.Status,
		"signature": hexutil.Encode(d.Signature),
	}
}

func (h *Handler) CreateDelegation(c *gin.Context) {
	var req struct {
		Delegate string       `json:"delegate"`
		Caveats  []caveatJSON `json:"caveats"`
		ChainID  int64        `json:"chainId"`
		Salt     string       `json:"salt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caveats, err := decodeCaveats(req.Caveats)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var salt *big.Int
	if req.Salt != "" {
		salt, _ = new(big.Int).SetString(req.Salt, 10)
	}

	d, err := h.co.CreateDelegation(c.Request.Context(), common.HexToAddress(req.Delegate), caveats, req.ChainID, salt, nil)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, delegationJSON(d))
}

func (h *Handler) ListDelegations(c *gin.Context) {
	list := h.co.ListDelegations()
	out := make([]gin.H, 0, len(list))
	for _, d := range list {
		out = append(out, delegationJSON(d))
	}
	c.JSON(http.StatusOK, gin.H{"delegations": out})
}

func (h *Handler) ReceiveDelegation(c *gin.Context) {
	var req struct {
		ID            string       `json:"id"`
		Delegator     string       `json:"delegator"`
		Delegate      string       `json:"delegate"`
		Authority     string       `json:"authority"`
		Caveats       []caveatJSON `json:"caveats"`
		Salt          string       `json:"salt"`
		ChainID       int64        `json:"chainId"`
		Signature     string       `json:"signature"`
		DelegatorKind string       `json:"delegatorKind"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caveats, err := decodeCaveats(req.Caveats)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	salt, ok := new(big.Int).SetString(req.Salt, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid salt"})
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	d := delegation.Delegation{
		ID:        decode32(req.ID),
		Delegator: common.HexToAddress(req.Delegator),
		Delegate:  common.HexToAddress(req.Delegate),
		Authority: decode32(req.Authority),
		Caveats:   caveats,
		Salt:      salt,
		ChainID:   req.ChainID,
		Signature: sig,
		Status:    delegation.StatusSigned,
	}

	received, err := h.co.ReceiveDelegation(c.Request.Context(), d, authoritystore.DelegatorKind(req.DelegatorKind))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, delegationJSON(received))
}

func (h *Handler) RevokeDelegation(c *gin.Context) {
	id := decode32(c.Param("id"))
	d, err := h.co.RevokeDelegation(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, delegationJSON(d))
}

func (h *Handler) RedeemDelegation(c *gin.Context) {
	var req struct {
		DelegationManager string `json:"delegationManager"`
		Target            string `json:"target"`
		Value             string `json:"value"`
		CallData          string `json:"callData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := decode32(c.Param("id"))

	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}
	callData, err := hexutil.Decode(req.CallData)
	if err != nil && req.CallData != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callData"})
		return
	}

	execution := useropcodec.Execution{Target: common.HexToAddress(req.Target), Value: value, CallData: callData}
	hash, err := h.co.RedeemDelegation(c.Request.Context(), coordinator.RedeemRoute{ID: &id}, execution, common.HexToAddress(req.DelegationManager))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userOpHash": hash})
}

func (h *Handler) SendTransaction(c *gin.Context) {
	var req struct {
		From              string `json:"from"`
		To                string `json:"to"`
		Value             string `json:"value"`
		Data              string `json:"data"`
		Nonce             uint64 `json:"nonce"`
		GasLimit          uint64 `json:"gasLimit"`
		ChainID           int64  `json:"chainId"`
		GasFeeCap         string `json:"gasFeeCap"`
		GasTipCap         string `json:"gasTipCap"`
		DelegationManager string `json:"delegationManager"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	to := common.HexToAddress(req.To)
	value, _ := new(big.Int).SetString(req.Value, 10)
	data, _ := hexutil.Decode(req.Data)
	gasFeeCap, hasFeeCap := new(big.Int).SetString(req.GasFeeCap, 10)
	gasTipCap, _ := new(big.Int).SetString(req.GasTipCap, 10)

	txReq := keyholder.TransactionRequest{
		From:     common.HexToAddress(req.From),
		To:       &to,
		Nonce:    req.Nonce,
		GasLimit: req.GasLimit,
		Value:    value,
		Data:     data,
		ChainID:  big.NewInt(req.ChainID),
	}
	if hasFeeCap {
		txReq.GasFeeCap = gasFeeCap
		txReq.GasTipCap = gasTipCap
	}

	result, err := h.co.SendTransaction(c.Request.Context(), txReq, common.HexToAddress(req.DelegationManager))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"viaUserOp":       result.ViaUserOp,
		"userOpHash":      result.UserOpHash,
		"transactionHash": result.TransactionHash.Hex(),
	})
}

func (h *Handler) WaitForUserOpReceipt(c *gin.Context) {
	hash := c.Param("hash")
	intervalMs := queryInt(c, "intervalMs", 1000)
	timeoutMs := queryInt(c, "timeoutMs", 30000)

	receipt, err := h.co.WaitForUserOpReceipt(c.Request.Context(), hash, time.Duration(intervalMs)*time.Millisecond, time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) SignTransaction(c *gin.Context) {
	var req struct {
		From      string `json:"from"`
		To        string `json:"to"`
		Value     string `json:"value"`
		Data      string `json:"data"`
		Nonce     uint64 `json:"nonce"`
		GasLimit  uint64 `json:"gasLimit"`
		ChainID   int64  `json:"chainId"`
		GasPrice  string `json:"gasPrice"`
		GasFeeCap string `json:"gasFeeCap"`
		GasTipCap string `json:"gasTipCap"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to := common.HexToAddress(req.To)
	value, _ := new(big.Int).SetString(req.Value, 10)
	data, _ := hexutil.Decode(req.Data)

	txReq := keyholder.TransactionRequest{
		From: common.HexToAddress(req.From), To: &to, Nonce: req.Nonce,
		GasLimit: req.GasLimit, Value: value, Data: data, ChainID: big.NewInt(req.ChainID),
	}
	if feeCap, ok := new(big.Int).SetString(req.GasFeeCap, 10); ok {
		txReq.GasFeeCap = feeCap
		txReq.GasTipCap, _ = new(big.Int).SetString(req.GasTipCap, 10)
	} else if gasPrice, ok := new(big.Int).SetString(req.GasPrice, 10); ok {
		txReq.GasPrice = gasPrice
	}

	raw, err := h.co.SignTransaction(c.Request.Context(), txReq)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signedTransaction": hexutil.Encode(raw)})
}

func (h *Handler) SignTypedData(c *gin.Context) {
	var req struct {
		From      string             `json:"from"`
		TypedData apitypes.TypedData `json:"typedData"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var from *common.Address
	if req.From != "" {
		addr := common.HexToAddress(req.From)
		from = &addr
	}
	sig, err := h.co.SignTypedData(c.Request.Context(), req.TypedData, from)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": hexutil.Encode(sig)})
}

func (h *Handler) SignMessage(c *gin.Context) {
	var req struct {
		From    string `json:"from"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var from *common.Address
	if req.From != "" {
		addr := common.HexToAddress(req.From)
		from = &addr
	}
	sig, err := h.co.SignMessage(c.Request.Context(), []byte(req.Message), from)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": hexutil.Encode(sig)})
}

func (h *Handler) HandleSigningRequest(c *gin.Context) {
	var req struct {
		Kind      string              `json:"kind"`
		From      string              `json:"from"`
		TypedData *apitypes.TypedData `json:"typedData"`
		Message   string              `json:"message"`
		Hash      string              `json:"hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var from *common.Address
	if req.From != "" {
		addr := common.HexToAddress(req.From)
		from = &addr
	}

	sigReq := peer.NewSigningRequest(peer.RequestKind(req.Kind), from)
	sigReq.TypedData = req.TypedData
	if req.Message != "" {
		sigReq.Message = []byte(req.Message)
	}
	if req.Hash != "" {
		digest := decode32(req.Hash)
		sigReq.Hash = &digest
	}

	sig, err := h.co.HandleSigningRequest(c.Request.Context(), sigReq)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signature": hexutil.Encode(sig)})
}

func decode32(s string) [32]byte {
	raw, err := hexutil.Decode(s)
	var out [32]byte
	if err != nil {
		return out
	}
	copy(out[:], raw)
	return out
}

func queryInt(c *gin.Context, key string, fallback int) int {
	s := c.Query(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func respondErr(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
