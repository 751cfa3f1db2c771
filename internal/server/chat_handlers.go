package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/chat"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type chatResponse struct {
	Status         string          `json:"status"`
	ConversationID string          `json:"conversation_id"`
	Messages       []model.Message `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.chat.Send(r.Context(), user.ID, req.ConversationID, req.Message)
	if err != nil {
		s.respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Status:         "ok",
		ConversationID: reply.ConversationID,
		Messages:       reply.Messages,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	convs, err := s.chat.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		s.respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convs)
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	reply, err := s.chat.History(r.Context(), user.ID, conversationID)
	if err != nil {
		s.respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Status:         "ok",
		ConversationID: reply.ConversationID,
		Messages:       reply.Messages,
	})
}

func (s *Server) respondChatError(w http.ResponseWriter, err error) {
	switch {
	case chat.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrConversationNotFound):
		respondError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, chat.ErrAgentTimeout):
		respondError(w, http.StatusRequestTimeout, "agent timed out")
	default:
		s.logger.Error("chat operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
