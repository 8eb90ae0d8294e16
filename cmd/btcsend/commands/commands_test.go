package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/internal/rpc"
	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/validation"
	"github.com/Klingon-tech/btcsend/internal/wallet"
)

// fakeDaemon answers JSON-RPC calls from a table of canned results.
type fakeDaemon struct {
	mu      sync.Mutex
	results map[string]interface{}
	calls   []string
	params  map[string]json.RawMessage
}

func newFakeDaemon(t *testing.T, results map[string]interface{}) (*fakeDaemon, string) {
	t.Helper()
	d := &fakeDaemon{results: results, params: make(map[string]json.RawMessage)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.mu.Lock()
		d.calls = append(d.calls, req.Method)
		d.params[req.Method] = req.Params
		result, ok := d.results[req.Method]
		d.mu.Unlock()

		resp := rpc.Response{JSONRPC: "2.0", ID: req.ID}
		if !ok {
			resp.Error = &rpc.Error{Code: rpc.MethodNotFound, Message: "Method not found"}
		} else {
			data, _ := json.Marshal(result)
			resp.Result = data
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return d, srv.URL
}

func (d *fakeDaemon) called(method string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.calls {
		if c == method {
			return true
		}
	}
	return false
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	formValues = sendform.Values{}
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--rpc", url, "--no-color"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestPreviewNavigated(t *testing.T) {
	d, url := newFakeDaemon(t, map[string]interface{}{
		"sendform_saveState": &rpc.SendformSaveStateResult{Saved: true},
		"sendform_preview": &sendform.PreviewResult{
			Outcome: sendform.OutcomeNavigated,
			Tx:      &wallet.GeneratedTx{Hex: "0200beef", Fee: 1410, VSize: 141},
			Event: &navigate.Event{
				Route: navigate.RouteConfirmBtc,
				State: &navigate.ConfirmBtcState{
					Tx:        "0200beef",
					Recipient: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
					Fee:       1410,
				},
			},
		},
	})

	output, err := run(t, url, "preview", "--amount", "0.001", "--to", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, want := range []string{"Transaction ready for review", "1410 sats", "141 vB", "0200beef"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	var sent sendform.Values
	if err := json.Unmarshal(d.params["sendform_preview"], &sent); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if sent.Amount != "0.001" || sent.RecipientAddressOrBnsName != "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4" {
		t.Errorf("unexpected params %+v", sent)
	}
	if !d.called("sendform_saveState") {
		t.Error("form values were not saved before preview")
	}
}

func TestPreviewOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		result  *sendform.PreviewResult
		wantOut string
	}{
		{
			name:    "high fee",
			result:  &sendform.PreviewResult{Outcome: sendform.OutcomeAwaitingFeeAck},
			wantOut: "ack-fee",
		},
		{
			name: "invalid",
			result: &sendform.PreviewResult{
				Outcome: sendform.OutcomeInvalid,
				Errors:  validation.Errors{"amount": "Insufficient balance"},
			},
			wantOut: "amount: Insufficient balance",
		},
		{
			name:    "ledger",
			result:  &sendform.PreviewResult{Outcome: sendform.OutcomeUnsupportedWallet},
			wantOut: "wallet type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := newFakeDaemon(t, map[string]interface{}{
				"sendform_saveState": &rpc.SendformSaveStateResult{Saved: true},
				"sendform_preview":   tt.result,
			})
			output, err := run(t, url, "preview", "--amount", "1")
			if err != nil {
				t.Fatalf("preview: %v", err)
			}
			if !strings.Contains(output, tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, output)
			}
		})
	}
}

func TestAckFeeRequiresPendingConfirmation(t *testing.T) {
	d, url := newFakeDaemon(t, map[string]interface{}{
		"sendform_state": &sendform.FormState{FormID: "f", Network: "mainnet"},
	})
	if _, err := run(t, url, "ack-fee", "--amount", "1"); err == nil {
		t.Fatal("expected error without a pending confirmation")
	}
	if d.called("sendform_preview") {
		t.Error("preview should not run")
	}
}

func TestCancelFee(t *testing.T) {
	d, url := newFakeDaemon(t, map[string]interface{}{
		"drawers_setHighFeeConfirmation": &rpc.DrawersStateResult{},
	})
	if _, err := run(t, url, "cancel-fee"); err != nil {
		t.Fatalf("cancel-fee: %v", err)
	}
	var p rpc.DrawersSetHighFeeConfirmationParams
	if err := json.Unmarshal(d.params["drawers_setHighFeeConfirmation"], &p); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if p.Showing {
		t.Error("cancel-fee should close the drawer")
	}
}

func TestValidateReportsErrors(t *testing.T) {
	_, url := newFakeDaemon(t, map[string]interface{}{
		"sendform_validate": &rpc.SendformValidateResult{
			Errors: validation.Errors{"recipient": "Invalid address"},
		},
	})
	output, err := run(t, url, "validate", "--amount", "0.1")
	if err == nil {
		t.Fatal("expected error for invalid form")
	}
	if !strings.Contains(output, "recipient: Invalid address") {
		t.Errorf("unexpected output:\n%s", output)
	}
}

func TestRPCErrorSurfaces(t *testing.T) {
	_, url := newFakeDaemon(t, map[string]interface{}{})
	_, err := run(t, url, "balance")
	var rpcErr *rpc.Error
	if err == nil || !errors.As(err, &rpcErr) || rpcErr.Code != rpc.MethodNotFound {
		t.Fatalf("expected method not found, got %v", err)
	}
}
