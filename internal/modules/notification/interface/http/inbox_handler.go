package handler

import (
	"ClientPulse/internal/middleware/jwt"
	"ClientPulse/internal/modules/notification/application/dto/request"
	"ClientPulse/internal/modules/notification/application/service"
	"ClientPulse/pkg/back"
	"ClientPulse/pkg/xerr"
	"ClientPulse/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InboxHandler struct {
	svc service.InboxService
}

func NewInboxHandler(svc service.InboxService) *InboxHandler {
	return &InboxHandler{svc: svc}
}

func (h *InboxHandler) ListNotifications(c *gin.Context) {
	var req request.ListNotificationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		zlog.Warn("bind list notification request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	userID := c.GetInt64(jwt.CtxUserID)
	data, err := h.svc.ListNotifications(c.Request.Context(), userID, req)
	if err != nil {
		zlog.Error("list notifications failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	back.Result(c, data, err)
}

func (h *InboxHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt64(jwt.CtxUserID)
	data, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		zlog.Error("count unread notifications failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	back.Result(c, data, err)
}

func (h *InboxHandler) GetPreference(c *gin.Context) {
	userID := c.GetInt64(jwt.CtxUserID)
	data, err := h.svc.GetPreference(c.Request.Context(), userID)
	if err != nil {
		zlog.Error("get email preference failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	back.Result(c, data, err)
}

func (h *InboxHandler) UpdatePreference(c *gin.Context) {
	var req request.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Warn("bind update preference request failed", zap.Error(err))
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	userID := c.GetInt64(jwt.CtxUserID)
	data, err := h.svc.UpdatePreference(c.Request.Context(), userID, req)
	if err != nil {
		zlog.Error("update email preference failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	back.Result(c, data, err)
}
