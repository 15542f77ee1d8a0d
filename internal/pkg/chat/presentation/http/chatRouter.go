package http

import (
	"github.com/gin-gonic/gin"

	blobport "github.com/poke-max/jomach-sub000/internal/infrastructure/blob/port"
	queueport "github.com/poke-max/jomach-sub000/internal/infrastructure/queue/port"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/realtime"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/feed"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/application/unread"
	"github.com/poke-max/jomach-sub000/internal/pkg/chat/presentation/controller"
	repository "github.com/poke-max/jomach-sub000/internal/pkg/chat/persistence/repository/port"
	"github.com/poke-max/jomach-sub000/pkg/logger"
)

// Deps carries everything the chat surface needs wired in. The composition
// root builds it once and hands it here.
type Deps struct {
	Repo     repository.ConversationRepository
	Feed     *feed.Hub
	Bridge   *unread.Bridge
	Router   *realtime.Router
	Queue    queueport.Client
	Notifier unread.Notifier
	Names    unread.NameResolver
	Blob     blobport.Store
	Log      *logger.Logger
}

// RegisterRoutes mounts the chat endpoints on rg. Auth middleware is applied
// by the caller; every handler assumes an authenticated user in context.
func RegisterRoutes(rg *gin.RouterGroup, d Deps) {
	createConversation := controller.NewCreateConversationController(d.Repo, d.Feed)
	listConversations := controller.NewListConversationsController(d.Repo)
	deleteConversation := controller.NewDeleteConversationController(d.Repo, d.Feed)
	sendMessage := controller.NewSendMessageController(d.Queue)
	getMessages := controller.NewGetMessagesController(d.Repo)
	editMessage := controller.NewEditMessageController(d.Repo, d.Feed)
	deleteMessage := controller.NewDeleteMessageController(d.Repo, d.Feed)
	markRead := controller.NewMarkReadController(d.Repo, d.Feed, d.Bridge)
	unreadSummary := controller.NewUnreadController(d.Repo)
	uploadAttachment := controller.NewUploadAttachmentController(d.Blob)
	socket := controller.NewChatSocketController(d.Repo, d.Feed, d.Bridge, d.Router, d.Notifier, d.Names, d.Log)

	rg.POST("/conversations", createConversation.Handle())
	rg.GET("/conversations", listConversations.Handle())
	rg.DELETE("/conversations/:conversationId", deleteConversation.Handle())

	rg.GET("/conversations/:conversationId/messages", getMessages.Handle())
	rg.POST("/conversations/:conversationId/messages", sendMessage.Handle())
	rg.PATCH("/conversations/:conversationId/messages/:messageId", editMessage.Handle())
	rg.DELETE("/conversations/:conversationId/messages/:messageId", deleteMessage.Handle())

	rg.POST("/conversations/:conversationId/read", markRead.Handle())
	rg.GET("/unread", unreadSummary.Handle())
	rg.POST("/attachments", uploadAttachment.Handle())

	rg.GET("/ws", socket.Handle())
}
