package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/storage"
	"portfolioBot/internal/taxlots"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DB != nil {
		if err := s.cfg.DB.Ping(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("health check failed")
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "db": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	s.writeJSON(w, http.StatusOK, s.cfg.Portfolio.ComputeAdvancedMetrics(r.Context(), id))
}

type holdingsResponse struct {
	UserID     int64               `json:"userId"`
	Holdings   []portfolio.Holding `json:"holdings"`
	TotalValue decimal.Decimal     `json:"totalValue"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	holdings, err := s.cfg.Portfolio.Holdings(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", id).Msg("failed to load holdings")
		s.writeError(w, http.StatusServiceUnavailable, "holdings unavailable")
		return
	}
	resp := holdingsResponse{UserID: id, Holdings: holdings}
	for _, h := range holdings {
		resp.TotalValue = resp.TotalValue.Add(h.Value())
	}
	if resp.Holdings == nil {
		resp.Holdings = []portfolio.Holding{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type setHoldingRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func (s *Server) handleSetHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req setHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	symbol := chi.URLParam(r, "symbol")
	err := s.cfg.Positions.SetPosition(r.Context(), id, symbol, req.Quantity)
	switch {
	case errors.Is(err, storage.ErrInvalidQuantity), errors.Is(err, storage.ErrInvalidSymbol):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Error().Err(err).Int64("user_id", id).Str("symbol", symbol).Msg("failed to set holding")
		s.writeError(w, http.StatusInternalServerError, "failed to save holding")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	symbol := chi.URLParam(r, "symbol")
	removed, err := s.cfg.Positions.RemovePosition(r.Context(), id, symbol)
	switch {
	case err != nil:
		s.log.Error().Err(err).Int64("user_id", id).Str("symbol", symbol).Msg("failed to remove holding")
		s.writeError(w, http.StatusInternalServerError, "failed to remove holding")
	case !removed:
		s.writeError(w, http.StatusNotFound, "holding not found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleTaxReport(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	report, err := s.cfg.Portfolio.TaxReport(r.Context(), id)
	switch {
	case errors.Is(err, taxlots.ErrOversold):
		s.writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.log.Error().Err(err).Int64("user_id", id).Msg("failed to build tax report")
		s.writeError(w, http.StatusServiceUnavailable, "tax report unavailable")
	default:
		s.writeJSON(w, http.StatusOK, map[string]any{
			"userId":            id,
			"realized":          report.Realized(),
			"realizedShortTerm": report.RealizedShortTerm,
			"realizedLongTerm":  report.RealizedLongTerm,
			"unrealized":        report.Unrealized,
			"sales":             report.Sales,
			"openLots":          report.OpenLots,
		})
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	img, err := s.cfg.Portfolio.ValueChart(r.Context(), id)
	switch {
	case errors.Is(err, portfolio.ErrNoHoldings):
		s.writeError(w, http.StatusNotFound, "no holdings")
	case err != nil:
		s.log.Error().Err(err).Int64("user_id", id).Msg("failed to render chart")
		s.writeError(w, http.StatusServiceUnavailable, "chart unavailable")
	default:
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(img)
	}
}
