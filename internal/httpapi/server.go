// Package httpapi exposes the ticketing service over JSON HTTP. Prices
// cross the wire as decimal strings; addresses are validated before any
// service call.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"ticketd/internal/domain"
	"ticketd/internal/ledger"
	"ticketd/internal/observability"
	"ticketd/internal/payments"
	"ticketd/internal/ticketing"
)

// Server routes HTTP requests to the ticketing service.
type Server struct {
	service *ticketing.Service
	logger  *log.Logger
	started time.Time
}

// NewServer creates an HTTP API server.
func NewServer(service *ticketing.Service, logger *log.Logger) *Server {
	return &Server{
		service: service,
		logger:  logger,
		started: time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	mux.HandleFunc("POST /v1/initialize", s.handleInitialize)

	mux.HandleFunc("GET /v1/tiers", s.handleListTiers)
	mux.HandleFunc("POST /v1/tiers", s.handleAddTier)
	mux.HandleFunc("GET /v1/tiers/{symbol}", s.handleGetTier)
	mux.HandleFunc("GET /v1/tiers/{symbol}/price", s.handleGetPrice)

	mux.HandleFunc("POST /v1/purchases", s.handlePurchase)
	mux.HandleFunc("POST /v1/refunds", s.handleRefund)
	mux.HandleFunc("POST /v1/batch-mints", s.handleBatchMint)

	mux.HandleFunc("GET /v1/tickets/{id}", s.handleGetTicket)
	mux.HandleFunc("GET /v1/tickets/{id}/valid", s.handleValidateTicket)

	mux.HandleFunc("GET /v1/config", s.handleGetConfig)
	mux.HandleFunc("PUT /v1/config", s.handleSetConfig)
	mux.HandleFunc("POST /v1/config/freeze", s.handleFreeze)
	mux.HandleFunc("POST /v1/config/oracle-reference", s.handleOracleReference)

	mux.HandleFunc("GET /v1/owner", s.handleGetOwner)
	mux.HandleFunc("POST /v1/owner/transfer", s.handleTransferOwnership)
	mux.HandleFunc("POST /v1/owner/accept", s.handleAcceptOwnership)
	mux.HandleFunc("POST /v1/owner/renounce", s.handleRenounceOwnership)

	return s.instrument(mux)
}

// instrument records request metrics around the mux.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if p := r.Pattern; p != "" {
			route = p
		}
		observability.RecordHTTPRequest(route, r.Method, rec.code, time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// statusResponse is the JSON response for /status.
type statusResponse struct {
	Status      string           `json:"status"`
	Uptime      string           `json:"uptime"`
	Initialized bool             `json:"initialized"`
	Owner       string           `json:"owner,omitempty"`
	Metadata    *ledger.Metadata `json:"metadata,omitempty"`
	TierCount   int              `json:"tier_count"`
	Frozen      bool             `json:"frozen"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status: "running",
		Uptime: time.Since(s.started).String(),
	}

	if owner, err := s.service.Owner(r.Context()); err == nil {
		resp.Initialized = true
		resp.Owner = string(owner)
	}
	if meta, err := s.service.Metadata(r.Context()); err == nil && meta.Name != "" {
		resp.Metadata = &meta
	}
	if tiers, err := s.service.ListTiers(r.Context()); err == nil {
		resp.TierCount = len(tiers)
	}
	if cfg, err := s.service.GetPricingConfig(r.Context()); err == nil {
		resp.Frozen = cfg.IsFrozen
	}

	writeJSON(w, http.StatusOK, resp)
}

type initializeRequest struct {
	Admin        string `json:"admin"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	URI          string `json:"uri"`
	StartTime    int64  `json:"start_time"`
	RefundCutoff int64  `json:"refund_cutoff"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.service.Initialize(r.Context(), domain.Address(req.Admin),
		req.Name, req.Symbol, req.URI, req.StartTime, req.RefundCutoff)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

// tierResponse is the JSON shape of one tier.
type tierResponse struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	BasePrice    string `json:"base_price"`
	CurrentPrice string `json:"current_price"`
	MaxSupply    uint32 `json:"max_supply"`
	Minted       uint32 `json:"minted"`
	Remaining    uint32 `json:"remaining"`
	Active       bool   `json:"active"`
	Strategy     string `json:"strategy"`
}

func tierToResponse(t *domain.Tier) tierResponse {
	return tierResponse{
		Symbol:       t.Symbol,
		Name:         t.Name,
		BasePrice:    domain.FormatPrice(t.BasePrice),
		CurrentPrice: domain.FormatPrice(t.CurrentPrice),
		MaxSupply:    t.MaxSupply,
		Minted:       t.Minted,
		Remaining:    t.Remaining(),
		Active:       t.Active,
		Strategy:     t.Strategy.String(),
	}
}

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.service.ListTiers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, tierToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type addTierRequest struct {
	Caller    string `json:"caller"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	BasePrice string `json:"base_price"`
	MaxSupply uint32 `json:"max_supply"`
	Strategy  string `json:"strategy"`
}

func (s *Server) handleAddTier(w http.ResponseWriter, r *http.Request) {
	var req addTierRequest
	if !s.decode(w, r, &req) {
		return
	}

	basePrice, err := domain.ParsePrice(req.BasePrice)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid base_price")
		return
	}

	err = s.service.AddTier(r.Context(), domain.Address(req.Caller),
		req.Symbol, req.Name, basePrice, req.MaxSupply, domain.PricingStrategy(req.Strategy))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"symbol": req.Symbol})
}

func (s *Server) handleGetTier(w http.ResponseWriter, r *http.Request) {
	tier, err := s.service.GetTier(r.Context(), r.PathValue("symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tierToResponse(tier))
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	price, err := s.service.GetTicketPrice(r.Context(), symbol)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"symbol": symbol,
		"price":  domain.FormatPrice(price),
	})
}

// ticketResponse is the JSON shape of one ticket.
type ticketResponse struct {
	TokenID      uint64 `json:"token_id"`
	Tier         string `json:"tier"`
	PurchaseTime int64  `json:"purchase_time"`
	PricePaid    string `json:"price_paid"`
	Valid        bool   `json:"valid"`
}

func ticketToResponse(tk *domain.Ticket) ticketResponse {
	return ticketResponse{
		TokenID:      tk.TokenID,
		Tier:         tk.TierSymbol,
		PurchaseTime: tk.PurchaseTime,
		PricePaid:    domain.FormatPrice(tk.PricePaid),
		Valid:        tk.IsValid,
	}
}

type purchaseRequest struct {
	Buyer string `json:"buyer"`
	Tier  string `json:"tier"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !s.decode(w, r, &req) {
		return
	}

	tk, err := s.service.Purchase(r.Context(), domain.Address(req.Buyer), req.Tier)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticketToResponse(tk))
}

type refundRequest struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"token_id"`
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.service.Refund(r.Context(), domain.Address(req.Caller), req.TokenID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

type batchMintRequest struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Tier   string `json:"tier"`
	Amount uint32 `json:"amount"`
}

func (s *Server) handleBatchMint(w http.ResponseWriter, r *http.Request) {
	var req batchMintRequest
	if !s.decode(w, r, &req) {
		return
	}

	ids, err := s.service.BatchMint(r.Context(), domain.Address(req.Caller),
		domain.Address(req.To), req.Tier, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"token_ids": ids})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid token id")
		return
	}

	tk, err := s.service.GetTicket(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ticketToResponse(tk))
}

func (s *Server) handleValidateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid token id")
		return
	}

	valid, err := s.service.ValidateTicket(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"token_id": id, "valid": valid})
}

// configResponse mirrors the pricing configuration with string prices.
type configResponse struct {
	OracleEndpoint       string `json:"oracle_endpoint"`
	DexEndpoint          string `json:"dex_endpoint"`
	PriceFloor           string `json:"price_floor"`
	PriceCeiling         string `json:"price_ceiling"`
	UpdateFrequency      int64  `json:"update_frequency"`
	LastUpdateTime       int64  `json:"last_update_time"`
	Frozen               bool   `json:"frozen"`
	OraclePair           string `json:"oracle_pair"`
	OracleReferencePrice string `json:"oracle_reference_price"`
	MaxOracleAgeSeconds  int64  `json:"max_oracle_age_seconds"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.GetPricingConfig(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, configResponse{
		OracleEndpoint:       cfg.OracleEndpoint,
		DexEndpoint:          cfg.DexEndpoint,
		PriceFloor:           domain.FormatPrice(cfg.PriceFloor),
		PriceCeiling:         domain.FormatPrice(cfg.PriceCeiling),
		UpdateFrequency:      cfg.UpdateFrequency,
		LastUpdateTime:       cfg.LastUpdateTime,
		Frozen:               cfg.IsFrozen,
		OraclePair:           cfg.OraclePair,
		OracleReferencePrice: domain.FormatPrice(cfg.OracleReferencePrice),
		MaxOracleAgeSeconds:  cfg.MaxOracleAgeSeconds,
	})
}

type setConfigRequest struct {
	Caller               string `json:"caller"`
	OracleEndpoint       string `json:"oracle_endpoint"`
	DexEndpoint          string `json:"dex_endpoint"`
	PriceFloor           string `json:"price_floor"`
	PriceCeiling         string `json:"price_ceiling"`
	UpdateFrequency      int64  `json:"update_frequency"`
	Frozen               bool   `json:"frozen"`
	OraclePair           string `json:"oracle_pair"`
	OracleReferencePrice string `json:"oracle_reference_price"`
	MaxOracleAgeSeconds  int64  `json:"max_oracle_age_seconds"`
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if !s.decode(w, r, &req) {
		return
	}

	floor, err := domain.ParsePrice(req.PriceFloor)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid price_floor")
		return
	}
	ceiling, err := domain.ParsePrice(req.PriceCeiling)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid price_ceiling")
		return
	}
	reference, err := domain.ParsePrice(req.OracleReferencePrice)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid oracle_reference_price")
		return
	}

	cfg := &domain.PricingConfig{
		OracleEndpoint:       req.OracleEndpoint,
		DexEndpoint:          req.DexEndpoint,
		PriceFloor:           floor,
		PriceCeiling:         ceiling,
		UpdateFrequency:      req.UpdateFrequency,
		IsFrozen:             req.Frozen,
		OraclePair:           req.OraclePair,
		OracleReferencePrice: reference,
		MaxOracleAgeSeconds:  req.MaxOracleAgeSeconds,
	}
	if err := s.service.SetPricingConfig(r.Context(), domain.Address(req.Caller), cfg); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type freezeRequest struct {
	Caller string `json:"caller"`
	Frozen bool   `json:"frozen"`
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.service.EmergencyFreeze(r.Context(), domain.Address(req.Caller), req.Frozen); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"frozen": req.Frozen})
}

type oracleReferenceRequest struct {
	Caller    string `json:"caller"`
	Reference string `json:"reference"`
}

func (s *Server) handleOracleReference(w http.ResponseWriter, r *http.Request) {
	var req oracleReferenceRequest
	if !s.decode(w, r, &req) {
		return
	}

	reference, err := domain.ParsePrice(req.Reference)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid reference")
		return
	}

	if err := s.service.UpdateOracleReference(r.Context(), domain.Address(req.Caller), reference); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reference": req.Reference})
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	owner, err := s.service.Owner(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": string(owner)})
}

type ownerTransferRequest struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"new_owner"`
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req ownerTransferRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.service.TransferOwnership(r.Context(), domain.Address(req.Caller), domain.Address(req.NewOwner))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"pending_owner": req.NewOwner})
}

type ownerActionRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleAcceptOwnership(w http.ResponseWriter, r *http.Request) {
	var req ownerActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.service.AcceptOwnership(r.Context(), domain.Address(req.Caller)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": req.Caller})
}

func (s *Server) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	var req ownerActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.service.RenounceOwnership(r.Context(), domain.Address(req.Caller)); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": ""})
}

// decode reads the request body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, ticketing.ErrNotAuthorized):
		code = http.StatusForbidden
	case errors.Is(err, ticketing.ErrTierNotFound),
		errors.Is(err, ticketing.ErrTicketNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ticketing.ErrAlreadyInitialized),
		errors.Is(err, ticketing.ErrNotInitialized),
		errors.Is(err, ticketing.ErrTierExists):
		code = http.StatusConflict
	case errors.Is(err, ticketing.ErrTierInactive),
		errors.Is(err, ticketing.ErrTierSoldOut),
		errors.Is(err, ticketing.ErrSupplyExceeded),
		errors.Is(err, ticketing.ErrRefundWindowClosed),
		errors.Is(err, ticketing.ErrTicketInvalid),
		errors.Is(err, payments.ErrInsufficientFunds):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAddress):
		code = http.StatusBadRequest
	}

	if code == http.StatusInternalServerError && s.logger != nil {
		s.logger.Printf("internal error: %v", err)
	}
	writeErrorJSON(w, code, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
