package chaingateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// requestID is the process-wide monotonic JSON-RPC id counter (spec §4.4,
// "Request id policy"). Shared across every gateway instance in the
// process so ids never repeat, avoiding reliance on random entropy that
// some isolation runtimes deny.
var requestID atomic.Uint64

func nextRequestID() uint64 {
	return requestID.Add(1)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// retryableStatusCodes is the fixed set of HTTP statuses that earn a retry
// (spec §4.4). Anything else propagates immediately.
var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

const maxRetries = 2

// backoff is the capped exponential backoff schedule: 500ms * 2^n.
func backoff(attempt int) time.Duration {
	return 500 * time.Millisecond * time.Duration(uint64(1)<<uint(attempt))
}

// call issues one JSON-RPC request against endpoint, retrying transient
// HTTP failures per the fixed policy. JSON-RPC-level errors (the node
// responded, with an error object) are never retried — they surface
// immediately with code and message (spec §4.4).
func call(ctx context.Context, httpClient *http.Client, endpoint, method string, params any) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, walleterr.Wrap(walleterr.Timeout, ctx.Err(), "%s: context cancelled during retry", method)
			case <-time.After(backoff(attempt - 1)):
			}
		}

		result, status, err := doOnce(ctx, httpClient, endpoint, method, params)
		if err == nil {
			return result, nil
		}
		if rpcErr, ok := err.(*walleterr.Error); ok && rpcErr.Kind == walleterr.BundlerRejected {
			return nil, err // JSON-RPC error object: never retried
		}
		if !retryableStatusCodes[status] {
			return nil, err
		}
		lastErr = err
	}
	return nil, walleterr.Wrap(walleterr.NetworkTransient, lastErr, "%s: exhausted retries", method)
}

// doOnce performs a single HTTP round trip and classifies the result.
func doOnce(ctx context.Context, httpClient *http.Client, endpoint, method string, params any) (json.RawMessage, int, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      nextRequestID(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, 0, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "%s: encode request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "%s: build request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, walleterr.Wrap(walleterr.NetworkTransient, err, "%s: http request", method)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, walleterr.Wrap(walleterr.NetworkTransient, err, "%s: read response", method)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, walleterr.New(walleterr.NetworkFatal, "%s: http status %d: %s", method, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, resp.StatusCode, walleterr.Wrap(walleterr.NetworkFatal, err, "%s: decode response", method)
	}
	if rpcResp.Error != nil {
		return nil, resp.StatusCode, &walleterr.Error{
			Kind:   walleterr.BundlerRejected,
			Detail: fmt.Sprintf("%s: %s", method, rpcResp.Error.Message),
			Code:   rpcResp.Error.Code,
		}
	}
	return rpcResp.Result, resp.StatusCode, nil
}
