package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/realtime"
	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/usecase"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	appErrors "github.com/poke-max/jomach-sub000/pkg/errors"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth happens in middleware; the socket is same-origin only in dev
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// ChatSocketController owns the realtime session: one socket per user carrying
// conversation-list pushes, per-conversation message pushes, unread snapshots,
// and inbound commands. Each session runs its own unread aggregator, torn down
// with the socket.
type ChatSocketController struct {
	Repo     repository.ConversationRepository
	Hub      *feed.Hub
	Bridge   *unread.Bridge
	Router   *realtime.Router
	Notifier unread.Notifier
	Names    unread.NameResolver
	Log      *logger.Logger

	send     *usecase.SendMessageUseCase
	markRead *usecase.MarkConversationReadUseCase
}

func NewChatSocketController(
	repo repository.ConversationRepository,
	hub *feed.Hub,
	bridge *unread.Bridge,
	router *realtime.Router,
	notifier unread.Notifier,
	names unread.NameResolver,
	log *logger.Logger,
) *ChatSocketController {
	return &ChatSocketController{
		Repo:     repo,
		Hub:      hub,
		Bridge:   bridge,
		Router:   router,
		Notifier: notifier,
		Names:    names,
		Log:      log,
		send:     usecase.NewSendMessageUseCase(repo, hub),
		markRead: usecase.NewMarkConversationReadUseCase(repo, hub, bridge),
	}
}

// clientFrame is an inbound command from the socket.
type clientFrame struct {
	Action         string           `json:"action"` // join | leave | message | mark_read | enable_notifications
	ConversationID string           `json:"conversation_id,omitempty"`
	Content        string           `json:"content,omitempty"`
	MsgType        *int16           `json:"msg_type,omitempty"`
	Metadata       *chat.Attachment `json:"metadata,omitempty"`
}

func (h *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.Log.Warn("websocket upgrade failed", "user_id", userID, "err", err)
			return
		}

		conn := realtime.NewConnection(userID, ws)
		h.Router.Attach(conn)
		h.runSession(c.Request.Context(), conn)
	}
}

// runSession blocks on the read loop until the client goes away, then tears
// down every subscription the session opened.
func (h *ChatSocketController) runSession(parent context.Context, conn *realtime.Connection) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	userID := conn.UserID

	agg := unread.NewAggregator(userID, h.Hub, h.Bridge, h.Notifier, h.Names, h.Log)
	agg.Start(ctx)
	defer agg.Close()

	unsubUnread := agg.Subscribe(func(s unread.Snapshot) {
		h.push(conn, gin.H{"type": "unread", "total": s.Total, "per_conversation": s.PerConversation})
	})
	defer unsubUnread()

	unsubConvs := h.Hub.SubscribeConversations(ctx, userID, func(convs []chat.Conversation) {
		out := make([]gin.H, 0, len(convs))
		for _, cv := range convs {
			out = append(out, conversationJSON(cv))
		}
		h.push(conn, gin.H{"type": "conversations", "conversations": out})
	})
	defer unsubConvs()

	joined := make(map[string]func())
	defer func() {
		for _, dispose := range joined {
			dispose()
		}
	}()

	defer h.Router.Detach(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.pushError(conn, "", appErrors.InvalidArg("malformed frame"))
			continue
		}

		switch frame.Action {
		case "join":
			h.handleJoin(ctx, conn, frame.ConversationID, joined)
		case "leave":
			if dispose, ok := joined[frame.ConversationID]; ok {
				dispose()
				delete(joined, frame.ConversationID)
			}
		case "message":
			h.handleMessage(ctx, conn, userID, frame)
		case "mark_read":
			h.handleMarkRead(ctx, conn, userID, frame.ConversationID)
		case "enable_notifications":
			granted := agg.RequestNotificationPermission(ctx)
			h.push(conn, gin.H{"type": "notifications", "enabled": granted})
		default:
			h.pushError(conn, frame.Action, appErrors.InvalidArg("unknown action"))
		}
	}
}

// handleJoin verifies membership, then opens a message-feed subscription that
// pushes the full ordered snapshot on every change, starting immediately.
func (h *ChatSocketController) handleJoin(ctx context.Context, conn *realtime.Connection, conversationID string, joined map[string]func()) {
	if conversationID == "" {
		h.pushError(conn, "join", appErrors.InvalidArg("conversation_id is required"))
		return
	}
	if _, ok := joined[conversationID]; ok {
		return
	}

	conv, err := h.Repo.GetConversation(ctx, conversationID)
	if err != nil {
		h.pushError(conn, "join", err)
		return
	}
	if !conv.HasParticipant(conn.UserID) {
		h.pushError(conn, "join", appErrors.ErrNotParticipant)
		return
	}

	joined[conversationID] = h.Hub.SubscribeMessages(ctx, conversationID, func(msgs []chat.Message) {
		h.push(conn, gin.H{
			"type":            "messages",
			"conversation_id": conversationID,
			"messages":        messagesJSON(msgs),
		})
	})
}

func (h *ChatSocketController) handleMessage(ctx context.Context, conn *realtime.Connection, userID string, frame clientFrame) {
	msgType := chat.MessageTypeText
	if frame.MsgType != nil {
		msgType = chat.MessageType(*frame.MsgType)
	}
	msg, err := h.send.Execute(ctx, usecase.SendMessageInput{
		ConversationID: frame.ConversationID,
		SenderID:       userID,
		Content:        frame.Content,
		MsgType:        msgType,
		Metadata:       frame.Metadata,
	})
	if err != nil {
		h.pushError(conn, "message", err)
		return
	}
	h.push(conn, gin.H{"type": "sent", "message": messageJSON(*msg)})
}

func (h *ChatSocketController) handleMarkRead(ctx context.Context, conn *realtime.Connection, userID, conversationID string) {
	updated, err := h.markRead.Execute(ctx, usecase.MarkConversationReadInput{
		ConversationID: conversationID,
		UserID:         userID,
	})
	if err != nil {
		h.pushError(conn, "mark_read", err)
		return
	}
	h.push(conn, gin.H{"type": "marked_read", "conversation_id": conversationID, "marked": updated})
}

func (h *ChatSocketController) push(conn *realtime.Connection, frame gin.H) {
	b, err := json.Marshal(frame)
	if err != nil {
		h.Log.Warn("frame encode failed", "user_id", conn.UserID, "err", err)
		return
	}
	if err := conn.Send(b); err != nil {
		h.Log.Debug("frame dropped, connection gone", "user_id", conn.UserID)
	}
}

func (h *ChatSocketController) pushError(conn *realtime.Connection, action string, err error) {
	h.push(conn, gin.H{"type": "error", "action": action, "error": err.Error(), "code": string(appErrors.CodeOf(err))})
}
