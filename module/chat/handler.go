package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"parley/logger"
	"parley/middleware"
	"parley/module/chat/model"
	"parley/module/chat/service"
	userservice "parley/module/user/service"
	rt "parley/service/chat"
	"parley/tools/api"
	"parley/tools/errs"
	"parley/tools/upload"
)

// Handler serves the message/group endpoints. Every successful persistence
// write is followed by a router notify so live recipients see it
// immediately; offline ones pick it up on their next fetch.
type Handler struct {
	Messages *service.Repo
	Users    *userservice.Repo
	Notifier *rt.Router
	Uploads  *upload.Uploader
}

func NewHandler(messages *service.Repo, users *userservice.Repo, notifier *rt.Router, uploads *upload.Uploader) *Handler {
	return &Handler{Messages: messages, Users: users, Notifier: notifier, Uploads: uploads}
}

// Register mounts the message routes; all of them require auth.
func (h *Handler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.Use(auth)
	rg.GET("/contacts", h.GetContacts)
	rg.GET("/messages/:id", h.GetConversation)
	rg.POST("/messages/send/:id", h.SendMessage)
	// gin requires one wildcard name per segment, so this is :id rather
	// than the original :messageId.
	rg.POST("/messages/:id/read", h.MarkMessageRead)
	rg.POST("/groups", h.CreateGroup)
	rg.GET("/groups", h.GetGroups)
	rg.POST("/groups/:id", h.SendGroupMessage)
	rg.GET("/groups/send/:id/messages", h.GetGroupMessages)
}

func (h *Handler) GetContacts(c *gin.Context) {
	users, err := h.Users.ListExcept(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Errorf("[chat] list contacts: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, users, "Fetched Friends")
}

func (h *Handler) GetConversation(c *gin.Context) {
	msgs, err := h.Messages.Conversation(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		logger.Errorf("[chat] fetch conversation: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, msgs, "Fetched Conversation")
}

type sendReq struct {
	Text string `json:"text"`
}

// messageContent pulls text and an optional image out of either a multipart
// form or a JSON body.
func (h *Handler) messageContent(c *gin.Context) (text, image string, err error) {
	if fh, ferr := c.FormFile("image"); ferr == nil {
		image, err = h.Uploads.SaveImage(fh)
		if err != nil {
			return "", "", err
		}
	}
	text = c.PostForm("text")
	if text == "" && image == "" {
		var body sendReq
		if c.ShouldBindJSON(&body) == nil {
			text = body.Text
		}
	}
	return text, image, nil
}

func (h *Handler) SendMessage(c *gin.Context) {
	text, image, err := h.messageContent(c)
	if err != nil {
		logger.Warnf("[chat] image upload: %v", err)
		api.Fail(c, errs.ErrUploadFailed)
		return
	}
	if text == "" && image == "" {
		api.Fail(c, errs.ErrArgs.WithDetail("Message cannot be empty"))
		return
	}

	msg := &model.Message{
		SenderID:   middleware.UserID(c),
		ReceiverID: c.Param("id"),
		Text:       text,
		Image:      image,
	}
	if err := h.Messages.RecordMessage(c.Request.Context(), msg); err != nil {
		logger.Errorf("[chat] record message: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	// Persisted first, then notified; the router drops unreachable targets.
	if err := h.Notifier.Notify(c.Request.Context(), rt.NewMessage{Msg: msg}); err != nil {
		logger.Warnf("[chat] notify message: %v", err)
	}
	api.OK(c, http.StatusCreated, msg, "Message sent successfully")
}

func (h *Handler) MarkMessageRead(c *gin.Context) {
	ev := rt.ReadReceipt{
		MessageID: c.Param("id"),
		ReaderID:  middleware.UserID(c),
	}
	if err := h.Notifier.Notify(c.Request.Context(), ev); err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			api.Fail(c, errs.ErrNotFound.WithDetail("message not found"))
			return
		}
		logger.Errorf("[chat] mark read: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, nil, "Message marked as read")
}

type createGroupReq struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members"`
	Avatar  string   `json:"avatar"`
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, errs.ErrArgs.WithDetail("name is required"))
		return
	}

	g := &model.Group{
		Name:      req.Name,
		Members:   req.Members,
		Avatar:    req.Avatar,
		CreatedBy: middleware.UserID(c),
	}
	if err := h.Messages.CreateGroup(c.Request.Context(), g); err != nil {
		logger.Errorf("[chat] create group: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusCreated, g, "Group created successfully")
}

func (h *Handler) GetGroups(c *gin.Context) {
	groups, err := h.Messages.GroupsFor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		logger.Errorf("[chat] list groups: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, groups, "Fetched Groups")
}

func (h *Handler) SendGroupMessage(c *gin.Context) {
	groupID := c.Param("id")
	senderID := middleware.UserID(c)

	members, err := h.Messages.GroupMembers(c.Request.Context(), groupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			api.Fail(c, errs.ErrNotFound.WithDetail("group not found"))
			return
		}
		logger.Errorf("[chat] resolve group: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	if !lo.Contains(members, senderID) {
		api.Fail(c, errs.ErrForbidden.WithDetail("not a group member"))
		return
	}

	text, image, err := h.messageContent(c)
	if err != nil {
		logger.Warnf("[chat] image upload: %v", err)
		api.Fail(c, errs.ErrUploadFailed)
		return
	}
	if text == "" && image == "" {
		api.Fail(c, errs.ErrArgs.WithDetail("Message cannot be empty"))
		return
	}

	msg := &model.Message{
		SenderID: senderID,
		GroupID:  groupID,
		Text:     text,
		Image:    image,
	}
	if err := h.Messages.RecordMessage(c.Request.Context(), msg); err != nil {
		logger.Errorf("[chat] record group message: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}

	if err := h.Notifier.Notify(c.Request.Context(), rt.NewMessage{Msg: msg}); err != nil {
		logger.Warnf("[chat] notify group message: %v", err)
	}
	api.OK(c, http.StatusCreated, msg, "Message sent successfully")
}

func (h *Handler) GetGroupMessages(c *gin.Context) {
	msgs, err := h.Messages.GroupMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Errorf("[chat] fetch group messages: %v", err)
		api.Fail(c, errs.ErrInternal)
		return
	}
	api.OK(c, http.StatusOK, msgs, "Fetched Group Messages")
}
