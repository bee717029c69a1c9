package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/impostorlabs/arena/pkg/engine"
	"github.com/impostorlabs/arena/pkg/protocol"
)

// SlotPolicy marks the trainable seat in a create request's role slots.
const SlotPolicy = "policy"

// createGameRequest is the trainer's game configuration. RoleSlots holds one
// entry per seat: "policy" for the trainable seat, an LLM name from the
// config for a specific opponent backend, or "" for the default opponent.
type createGameRequest struct {
	GameID                 string   `json:"game_id,omitempty"`
	RoleSlots              []string `json:"role_slots,omitempty"`
	SecurityTarget         int      `json:"security_target,omitempty"`
	SabotageTarget         int      `json:"sabotage_target,omitempty"`
	PromotionThreshold     int      `json:"promotion_threshold,omitempty"`
	SecurityCards          int      `json:"security_cards,omitempty"`
	SabotageCards          int      `json:"sabotage_cards,omitempty"`
	ImpostorOversampleProb *float64 `json:"impostor_oversample_prob,omitempty"`
	Seed                   int64    `json:"seed,omitempty"`
}

type gameInfoResponse struct {
	GameID        string `json:"game_id"`
	TrainableRole string `json:"trainable_role,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if req.GameID == "" {
		req.GameID = uuid.NewString()
	}
	if len(req.RoleSlots) == 0 {
		// Four default opponents and the trainable policy in the last seat.
		req.RoleSlots = []string{"", "", "", "", SlotPolicy}
	}

	opponents, err := s.buildOpponents(req.RoleSlots)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := engine.GameConfig{
		GameID:             req.GameID,
		Opponents:          opponents,
		SecurityTarget:     orDefault(req.SecurityTarget, s.cfg.Engine.SecurityTarget),
		SabotageTarget:     orDefault(req.SabotageTarget, s.cfg.Engine.SabotageTarget),
		PromotionThreshold: req.PromotionThreshold,
		SecurityCards:      orDefault(req.SecurityCards, s.cfg.Engine.SecurityCards),
		SabotageCards:      orDefault(req.SabotageCards, s.cfg.Engine.SabotageCards),
		Seed:               req.Seed,
	}
	if req.ImpostorOversampleProb != nil {
		cfg.ImpostorOversampleProb = *req.ImpostorOversampleProb
	} else {
		cfg.ImpostorOversampleProb = s.cfg.Engine.ImpostorOversampleProb
	}

	input, err := s.engine.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, input)
}

// buildOpponents maps role slots onto opponent adapters. A nil entry marks
// the trainable seat for the engine.
func (s *Server) buildOpponents(slots []string) ([]engine.Opponent, error) {
	opponents := make([]engine.Opponent, len(slots))
	for i, slot := range slots {
		if slot == SlotPolicy {
			continue
		}

		name := slot
		if name == "" {
			name = s.cfg.Engine.OpponentLLM
		}
		if name == "" {
			return nil, fmt.Errorf("seat %d needs an LLM but no opponent_llm is configured", i)
		}

		provider, ok := s.llms.Get(name)
		if !ok {
			return nil, fmt.Errorf("seat %d references unknown LLM %q", i, name)
		}
		opponents[i] = engine.NewLLMOpponent(
			fmt.Sprintf("agent_%d", i),
			provider,
			s.cfg.Engine.OpponentRetries,
		)
	}
	return opponents, nil
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	var output protocol.ModelOutput
	if err := json.NewDecoder(r.Body).Decode(&output); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	input, err := s.engine.Execute(r.Context(), gameID, output)
	if err != nil {
		var notFound *engine.GameNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, input)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	role, err := s.engine.TrainableRole(gameID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, gameInfoResponse{
		GameID:        gameID,
		TrainableRole: string(role),
	})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"games": s.engine.GameIDs()})
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	if err := s.engine.Finalize(gameID); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"active_games": len(s.engine.GameIDs()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
