package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/config"
	"github.com/hyperjump/annai/internal/llm"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/profile"
	"github.com/hyperjump/annai/pkg/utils"
)

// sourcePreviewLimit caps the chunk excerpt returned with a chat response.
const sourcePreviewLimit = 200

// setupRequiredResponse is returned as a normal chat reply when no API key is
// configured yet. The missing key is a setup condition, not a server error.
const setupRequiredResponse = "👋 Setup Required: Please configure your Groq API Key to begin."

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type sourcePreview struct {
	Source  string `json:"source"`
	Preview string `json:"preview"`
}

type chatResponse struct {
	Response  string          `json:"response"`
	Sources   []sourcePreview `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID != "" {
		if !s.history.SetActive(sessionID) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
	} else {
		sessionID = s.history.EnsureActive()
	}

	apiKey, err := config.APIKey(s.config.Storage.EnvPath)
	if err != nil {
		s.logger.Error("credential lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if apiKey == "" {
		s.respondJSON(w, http.StatusOK, chatResponse{
			Response:  setupRequiredResponse,
			Sources:   []sourcePreview{},
			SessionID: sessionID,
		})
		return
	}

	s.logger.Debug("chat request",
		zap.String("session_id", sessionID),
		zap.Int("message_len", len(req.Message)))

	// History replayed to the model excludes the message being answered.
	prior := s.history.Messages(sessionID)
	text, sources := s.orchestrator.Respond(r.Context(), req.Message, prior, apiKey, s.profiles.Get())

	s.history.Append(sessionID, models.RoleUser, req.Message)
	s.history.Append(sessionID, models.RoleAssistant, text)

	previews := make([]sourcePreview, 0, len(sources))
	for _, ch := range sources {
		previews = append(previews, sourcePreview{
			Source:  ch.Source,
			Preview: utils.Truncate(ch.Content, sourcePreviewLimit),
		})
	}
	s.respondJSON(w, http.StatusOK, chatResponse{
		Response:  text,
		Sources:   previews,
		SessionID: sessionID,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions":  s.history.List(),
		"active_id": s.history.ActiveID(),
	})
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id := s.history.NewSession()
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleActivateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.history.SetActive(id) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "active"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.profiles.Get())
}

func (s *Server) handleReplaceProfile(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Education == "" {
		p.Education = models.DefaultProfile().Education
	}
	if !profile.ValidEducation(p.Education) {
		s.respondError(w, http.StatusBadRequest, "invalid education level")
		return
	}
	s.profiles.Replace(p)
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleResetProfile(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.profiles.Reset())
}

type apiKeyRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleSetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := llm.ValidateKey(req.Key); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := config.SaveAPIKey(s.config.Storage.EnvPath, req.Key); err != nil {
		s.logger.Error("failed to store API key", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleRebuildIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := s.builder.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("index rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.swapIndex(idx)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "rebuilt",
		"chunks": idx.Size(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"chunks":   s.indexSize(),
		"sessions": s.history.Count(),
		"state":    s.orchestrator.State().String(),
		"config": map[string]interface{}{
			"model":                s.config.LLM.Model,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"chunk_size":           s.config.Knowledge.ChunkSize,
			"chunk_overlap":        s.config.Knowledge.ChunkOverlap,
			"top_k":                s.config.Retrieval.TopK,
			"knowledge_dir":        s.config.Knowledge.Dir,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
