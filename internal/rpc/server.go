// Package rpc provides a JSON-RPC 2.0 server for the btcsend daemon.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/drawers"
	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/storage"
	"github.com/Klingon-tech/btcsend/internal/ui/styles"
	"github.com/Klingon-tech/btcsend/internal/wallet"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Server is a JSON-RPC 2.0 server.
type Server struct {
	controller *sendform.Controller
	wallet     *wallet.Service
	drawers    *drawers.Store
	router     *navigate.Router
	selector   *chain.Selector
	store      *storage.Storage
	log        *logging.Logger
	wsHub      *WSHub

	server   *http.Server
	listener net.Listener

	handlers map[string]Handler
	mu       sync.RWMutex
}

// Config holds the services the server exposes. Store is optional.
type Config struct {
	Controller *sendform.Controller
	Wallet     *wallet.Service
	Drawers    *drawers.Store
	Router     *navigate.Router
	Selector   *chain.Selector
	Store      *storage.Storage
}

// Handler is a JSON-RPC method handler.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// errInvalidParams marks handler errors caused by bad input.
var errInvalidParams = errors.New("invalid params")

// NewServer creates a new JSON-RPC server. Navigation and drawer changes are
// published to WebSocket clients from the moment it is created.
func NewServer(cfg *Config) *Server {
	s := &Server{
		controller: cfg.Controller,
		wallet:     cfg.Wallet,
		drawers:    cfg.Drawers,
		router:     cfg.Router,
		selector:   cfg.Selector,
		store:      cfg.Store,
		log:        logging.GetDefault().Component("rpc"),
		wsHub:      NewWSHub(),
		handlers:   make(map[string]Handler),
	}

	if s.router != nil {
		s.router.AddSink(s.wsHub)
	}
	if s.drawers != nil {
		s.drawers.Subscribe(func(c drawers.Change) {
			s.wsHub.Broadcast(EventDrawerChanged, c)
		})
	}
	if s.selector != nil {
		s.selector.OnSwitch(func(p *chain.Params) {
			s.wsHub.Broadcast(EventNetworkChanged, networkInfo(p))
		})
	}

	s.registerHandlers()

	return s
}

// registerHandlers registers all JSON-RPC method handlers.
func (s *Server) registerHandlers() {
	// Send form methods
	s.handlers["sendform_state"] = s.sendformState
	s.handlers["sendform_validate"] = s.sendformValidate
	s.handlers["sendform_resolveRecipient"] = s.sendformResolveRecipient
	s.handlers["sendform_preview"] = s.sendformPreview
	s.handlers["sendform_saveState"] = s.sendformSaveState
	s.handlers["sendform_restoreState"] = s.sendformRestoreState
	s.handlers["sendform_previews"] = s.sendformPreviews

	// Drawer methods
	s.handlers["drawers_setHighFeeConfirmation"] = s.drawersSetHighFeeConfirmation

	// Wallet methods
	s.handlers["wallet_currentAddress"] = s.walletCurrentAddress
	s.handlers["wallet_balance"] = s.walletBalance
	s.handlers["wallet_maxSpend"] = s.walletMaxSpend

	// Network methods
	s.handlers["network_current"] = s.networkCurrent
	s.handlers["network_switch"] = s.networkSwitch
	s.handlers["network_list"] = s.networkList
}

// Handler returns the HTTP handler serving RPC, WebSocket and styles.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleRPC)
	mux.HandleFunc("POST /{$}", s.handleRPC)
	mux.HandleFunc("OPTIONS /", s.handleCORS)
	mux.HandleFunc("OPTIONS /{$}", s.handleCORS)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /ws/", s.handleWS)
	mux.HandleFunc("GET /styles/popup-center.css", s.handlePopupCenterCSS)
	return corsMiddleware(mux)
}

// Start starts the RPC server.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	go s.wsHub.Run()

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("RPC server error", "error", err)
		}
	}()

	s.log.Info("RPC server started", "addr", listener.Addr().String(), "ws", "ws://"+listener.Addr().String()+"/ws")
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the RPC server.
func (s *Server) Stop() error {
	s.wsHub.Stop()
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRPC handles incoming JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, ParseError, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, InvalidRequest, "Invalid Request", nil)
		return
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()

	if !ok {
		s.writeError(w, req.ID, MethodNotFound, "Method not found", req.Method)
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		code := InternalError
		if errors.Is(err, errInvalidParams) {
			code = InvalidParams
		}
		s.log.Debug("RPC call failed", "method", req.Method, "error", err)
		s.writeError(w, req.ID, code, err.Error(), nil)
		return
	}

	s.writeResult(w, req.ID, result)
}

// writeResult writes a successful response.
func (s *Server) writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, InternalError, "failed to encode result", nil)
		return
	}
	resp := Response{
		JSONRPC: "2.0",
		Result:  data,
		ID:      id,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	resp := Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) handlePopupCenterCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", styles.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(styles.PopupCenter()))
}

// handleCORS handles CORS preflight requests.
func (s *Server) handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// corsMiddleware adds CORS headers to all responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The wallet popup and the CLI run on other origins
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// decodeParams unmarshals params into dst. Empty params leave dst untouched.
func decodeParams(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}
