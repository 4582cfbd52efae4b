package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"netrunner/domain/entities"
	"netrunner/domain/services"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type executeRequest struct {
	CommandID string `json:"commandId"`
	TraceID   string `json:"traceId,omitempty"`
}

type executeResponse struct {
	TraceID     string `json:"traceId"`
	CommandID   string `json:"commandId"`
	OK          bool   `json:"ok"`
	Reason      string `json:"reason"`
	Delta       int64  `json:"delta"`
	Balance     int64  `json:"balance"`
	XPGained    int64  `json:"xpGained"`
	NextReadyAt string `json:"nextReadyAt,omitempty"`
}

type catalogEntry struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	MinReward     int64   `json:"minReward"`
	MaxReward     int64   `json:"maxReward"`
	FailPenalty   int64   `json:"failPenalty"`
	SuccessChance float64 `json:"successChance"`
	CooldownSec   int64   `json:"cooldownSec"`
	XPReward      int64   `json:"xpReward"`
	UnlockCost    int64   `json:"unlockCost"`
	RequiredLevel int     `json:"requiredLevel"`
	Unlocked      bool    `json:"unlocked"`
}

type catalogResponse struct {
	Commands []catalogEntry `json:"commands"`
}

type profileResponse struct {
	PlayerID   string   `json:"playerId"`
	Handle     string   `json:"handle"`
	Balance    int64    `json:"balance"`
	Experience int64    `json:"experience"`
	Level      int      `json:"level"`
	Banned     bool     `json:"banned"`
	BanReason  string   `json:"banReason,omitempty"`
	Unlocked   []string `json:"unlocked"`
}

type createProfileRequest struct {
	Handle string `json:"handle,omitempty"`
}

type unlockRequest struct {
	CommandID string `json:"commandId"`
}

type unlockResponse struct {
	CommandID  string `json:"commandId"`
	Source     string `json:"source"`
	UnlockedAt string `json:"unlockedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExecute runs one command invocation for the authenticated player. A
// trace id supplied by the client makes the request idempotent; when absent
// the server generates one, so the response always carries the id to replay.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed request body")
		return
	}
	if req.CommandID == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "commandId is required")
		return
	}
	if req.TraceID == "" {
		req.TraceID = uuid.New().String()
	}

	outcome, err := s.executor.ExecuteCommand(r.Context(), identity.PlayerID, req.CommandID, req.TraceID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// A replayed outcome serializes identically to the original response;
	// whether this request hit the trace ledger is not observable on the wire.
	resp := executeResponse{
		TraceID:   outcome.TraceID,
		CommandID: outcome.CommandID,
		OK:        outcome.OK,
		Reason:    string(outcome.Reason),
		Delta:     outcome.Delta,
		Balance:   outcome.NewBalance,
		XPGained:  outcome.ExperienceGain,
	}
	if !outcome.NextEligibleAt.IsZero() {
		resp.NextReadyAt = outcome.NextEligibleAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCatalog lists all commands with the caller's unlock state. Players
// without an account yet see only starter commands as unlocked.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	player, unlocked, err := s.executor.GetProfile(r.Context(), identity.PlayerID)
	if err != nil && !errors.Is(err, services.ErrUnknownPlayer) {
		writeDomainError(w, err)
		return
	}

	defs := s.executor.Catalog().All()
	resp := catalogResponse{Commands: make([]catalogEntry, 0, len(defs))}
	for _, def := range defs {
		entry := catalogEntry{
			ID:            def.ID,
			Title:         def.Title,
			MinReward:     def.MinReward,
			MaxReward:     def.MaxReward,
			FailPenalty:   def.FailPenalty,
			SuccessChance: def.SuccessProbability,
			CooldownSec:   int64(def.Cooldown / time.Second),
			XPReward:      def.ExperienceReward,
			UnlockCost:    def.UnlockCost,
			RequiredLevel: def.RequiredLevel,
		}
		if player != nil {
			entry.Unlocked, _ = s.executor.Catalog().IsUnlockedFor(player, unlocked, def.ID)
		} else {
			entry.Unlocked = def.IsStarter() && def.RequiredLevel <= 1
		}
		resp.Commands = append(resp.Commands, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	player, unlocked, err := s.executor.GetProfile(r.Context(), identity.PlayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponseFrom(player, unlocked))
}

// handleCreateProfile ensures the player account exists, creating it with the
// starting balance on first call. Safe to call on every login.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req createProfileRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed request body")
			return
		}
	}
	handle := req.Handle
	if handle == "" {
		handle = identity.Handle
	}
	if handle == "" {
		handle = identity.PlayerID
	}

	player, err := s.executor.EnsurePlayer(r.Context(), identity.PlayerID, handle)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	_, unlocked, err := s.executor.GetProfile(r.Context(), identity.PlayerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.WithFields(log.Fields{
		"playerID": player.ID,
		"handle":   player.Handle,
	}).Info("Ensured player profile")
	writeJSON(w, http.StatusOK, profileResponseFrom(player, unlocked))
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed request body")
		return
	}
	if req.CommandID == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "commandId is required")
		return
	}

	unlock, err := s.executor.PurchaseUnlock(r.Context(), identity.PlayerID, req.CommandID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, unlockResponse{
		CommandID:  unlock.CommandID,
		Source:     string(unlock.Source),
		UnlockedAt: unlock.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func profileResponseFrom(player *entities.Player, unlocked entities.UnlockSet) profileResponse {
	resp := profileResponse{
		PlayerID:   player.ID,
		Handle:     player.Handle,
		Balance:    player.Balance,
		Experience: player.Experience,
		Level:      player.Level,
		Banned:     player.IsBanned,
		Unlocked:   make([]string, 0, len(unlocked)),
	}
	if player.BanReason != nil {
		resp.BanReason = *player.BanReason
	}
	for commandID := range unlocked {
		resp.Unlocked = append(resp.Unlocked, commandID)
	}
	sort.Strings(resp.Unlocked)
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField("error", err).Error("Failed to encode response")
	}
}
