package evm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const jsonRPCVersion = "2.0"

type jsonRPCRequest struct {
	ID      uint64 `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type jsonRPCError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	ID      json.RawMessage `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error"`
}

// hasResult reports whether the envelope carries a non-null result.
func (r *jsonRPCResponse) hasResult() bool {
	return len(r.Result) != 0 && !bytes.Equal(r.Result, []byte("null"))
}

// callParams is the transaction object of an eth_call request.
type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

func encodeRequest(id uint64, method string, params ...any) ([]byte, error) {
	if params == nil {
		params = []any{}
	}

	payload, err := json.Marshal(jsonRPCRequest{
		ID:      id,
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	return payload, nil
}
