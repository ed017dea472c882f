package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/pkg/provider"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"providers": s.registry.List(),
	})
}

type saveCredentialRequest struct {
	APIKey string `json:"api_key"`
}

// handleSaveCredential validates the submitted key against the live
// provider before persisting it. A key the provider rejects is never
// stored.
func (s *Server) handleSaveCredential(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")

	var req saveCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errorBody{
			Error: "invalid request body", Stage: "decode",
		})
		return
	}
	if req.APIKey == "" {
		s.writeError(w, http.StatusBadRequest, errorBody{
			Error: "api_key is required", Stage: "decode",
		})
		return
	}

	client, err := s.registry.Client(providerID)
	if err != nil {
		s.metrics.RecordCredentialSave(providerID, "unknown")
		s.writeError(w, http.StatusNotFound, errorBody{
			Error: "unknown provider: " + providerID, Stage: "lookup", Provider: providerID,
		})
		return
	}

	valid, err := client.ValidateCredential(r.Context(), req.APIKey)
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Credential validation call failed",
			zap.String("provider", providerID),
			zap.Error(err),
		)
		s.metrics.RecordCredentialSave(providerID, "error")
		s.writeError(w, http.StatusBadGateway, errorBody{
			Error: "provider validation call failed: " + err.Error(), Stage: "validate", Provider: providerID,
		})
		return
	}
	if !valid {
		s.metrics.RecordCredentialSave(providerID, "rejected")
		s.writeError(w, http.StatusUnprocessableEntity, errorBody{
			Error: "provider rejected the credential", Stage: "validate", Provider: providerID,
		})
		return
	}

	if err := s.store.Save(r.Context(), providerID, req.APIKey); err != nil {
		s.metrics.RecordCredentialSave(providerID, "error")
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: "failed to store credential: " + err.Error(), Stage: "store", Provider: providerID,
		})
		return
	}

	s.metrics.RecordCredentialSave(providerID, "saved")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"provider":   providerID,
		"configured": true,
	})
}

func (s *Server) handleClearCredential(w http.ResponseWriter, r *http.Request) {
	providerID := r.PathValue("id")
	if err := s.store.Clear(r.Context(), providerID); err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			s.writeError(w, http.StatusNotFound, errorBody{
				Error: err.Error(), Stage: "lookup", Provider: providerID,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: err.Error(), Stage: "store", Provider: providerID,
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearAllCredentials(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: err.Error(), Stage: "store",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type labelResponse struct {
	Label     *provider.LabelResult `json:"label"`
	HistoryID string                `json:"history_id,omitempty"`
	Warning   string                `json:"warning,omitempty"`
}

// handleGenerateLabel runs the full purchase flow: validate, rate-shop
// across configured providers, persist the winner to history. A history
// write failure is reported as a warning but never discards the label
// the user already paid for.
func (s *Server) handleGenerateLabel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req provider.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errorBody{
			Error: "invalid request body", Stage: "decode",
		})
		return
	}

	result, err := s.orchestrator.GenerateCheapestLabel(r.Context(), &req)
	if err != nil {
		s.writeLabelError(w, err)
		s.metrics.RecordLabel("error", time.Since(start).Seconds())
		return
	}

	s.metrics.RecordLabel("success", time.Since(start).Seconds())
	s.metrics.RecordWin(result.Provider)

	resp := labelResponse{Label: result}
	entry, err := s.log.Append(r.Context(), history.Entry{
		Provider:       result.Provider,
		ProviderName:   result.ProviderName,
		Rate:           result.Rate,
		TrackingNumber: result.TrackingNumber,
		LabelURL:       result.LabelURL,
		TrackingURL:    result.TrackingURL,
		From:           req.From,
		To:             req.To,
		Weight:         req.Weight,
	})
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Failed to append history entry",
			zap.String("provider", result.Provider),
			zap.Error(err),
		)
		resp.Warning = "label purchased but history write failed: " + err.Error()
	} else {
		resp.HistoryID = entry.ID
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) writeLabelError(w http.ResponseWriter, err error) {
	var vErr *provider.ValidationFailedError
	if errors.As(err, &vErr) {
		s.writeError(w, http.StatusBadRequest, errorBody{
			Error: "shipment validation failed", Stage: "validation", Fields: vErr.Fields,
		})
		return
	}
	if errors.Is(err, provider.ErrNoProvidersConfigured) {
		s.writeError(w, http.StatusConflict, errorBody{
			Error: "no shipping providers configured", Stage: "registry",
		})
		return
	}
	var cErr *provider.CallError
	if errors.As(err, &cErr) {
		s.metrics.RecordProviderError(cErr.Provider, cErr.Op)
		s.writeError(w, http.StatusBadGateway, errorBody{
			Error: cErr.Error(), Stage: "provider", Provider: cErr.Provider,
		})
		return
	}
	s.writeError(w, http.StatusInternalServerError, errorBody{
		Error: err.Error(), Stage: "orchestrator",
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	entries, err := s.log.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: err.Error(), Stage: "history",
		})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.log.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: err.Error(), Stage: "history",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.log.Clear(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, errorBody{
			Error: err.Error(), Stage: "history",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
