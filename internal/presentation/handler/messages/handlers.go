package messages

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hilthontt/converse/internal/domain"
	"github.com/hilthontt/converse/internal/infrastructure/json"
	"github.com/hilthontt/converse/internal/presentation/utils"
	"go.uber.org/zap"
)

const maxMessageLength = 5000

type Handler struct {
	userRepository         domain.UserRepository
	messageRepository      domain.MessageRepository
	conversationRepository domain.ConversationRepository
	logger                 *zap.SugaredLogger
}

func NewHandler(
	userRepository domain.UserRepository,
	messageRepository domain.MessageRepository,
	conversationRepository domain.ConversationRepository,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{
		userRepository:         userRepository,
		messageRepository:      messageRepository,
		conversationRepository: conversationRepository,
		logger:                 logger,
	}
}

// SendMessageHandler persists a direct message to the peer named in the path.
// Real-time delivery is the socket's job; this endpoint only stores.
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")
	if peerID == "" {
		json.WriteValidationError(w, errors.New("peer ID is missing"))
		return
	}

	senderID := utils.UserIDFromContext(r.Context())
	if senderID == peerID {
		json.WriteBadRequestError(w, "cannot send a message to yourself")
		return
	}

	var req sendMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		json.WriteBadRequestError(w, "message must not be empty")
		return
	}
	if len(body) > maxMessageLength {
		json.WriteBadRequestError(w, "message is too long")
		return
	}

	if _, err := h.userRepository.GetByID(r.Context(), peerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Recipient not found")
		default:
			h.logger.Errorw("failed to look up recipient", "peerId", peerID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	conversation, err := h.conversationRepository.FindOrCreate(r.Context(), senderID, peerID)
	if err != nil {
		h.logger.Errorw("failed to resolve conversation", "senderId", senderID, "peerId", peerID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	message := &domain.Message{
		SenderID:   senderID,
		ReceiverID: peerID,
		Body:       body,
		CreatedAt:  time.Now(),
	}

	if err := h.messageRepository.Create(r.Context(), message); err != nil {
		h.logger.Errorw("failed to persist message", "conversationId", conversation.ID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	if err := h.conversationRepository.AppendMessage(r.Context(), conversation.ID, message.ID); err != nil {
		h.logger.Errorw("failed to append message to conversation", "conversationId", conversation.ID, "messageId", message.ID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, newMessageResponse(message, conversation.ID))
}

// GetMessagesHandler returns the full history with the peer, oldest first. Two
// users who never talked get an empty list rather than an error.
func (h *Handler) GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerId")
	if peerID == "" {
		json.WriteValidationError(w, errors.New("peer ID is missing"))
		return
	}

	userID := utils.UserIDFromContext(r.Context())

	conversation, err := h.conversationRepository.Get(r.Context(), userID, peerID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConversationNotFound):
			json.Write(w, http.StatusOK, []messageResponse{})
		default:
			h.logger.Errorw("failed to load conversation", "userId", userID, "peerId", peerID, "error", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	history, err := h.messageRepository.GetByIDs(r.Context(), conversation.MessageIDs)
	if err != nil {
		h.logger.Errorw("failed to load messages", "conversationId", conversation.ID, "error", err)
		json.WriteInternalError(w, err)
		return
	}

	out := make([]messageResponse, 0, len(history))
	for i := range history {
		out = append(out, newMessageResponse(&history[i], conversation.ID))
	}

	json.Write(w, http.StatusOK, out)
}
