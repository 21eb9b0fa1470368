package handler

import (
	"context"

	"ClientPulse/internal/middleware/jwt"
	"ClientPulse/internal/modules/workflow/application/dto/respond"
	"ClientPulse/pkg/back"
	"ClientPulse/pkg/xerr"
	"ClientPulse/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Trigger 由调度器实现
type Trigger interface {
	TriggerNow(ctx context.Context) (*respond.RunResult, error)
}

type WorkflowHandler struct {
	trigger Trigger
}

func NewWorkflowHandler(trigger Trigger) *WorkflowHandler {
	return &WorkflowHandler{trigger: trigger}
}

// Run 管理员手动触发一轮；请求断开不中断本轮执行
func (h *WorkflowHandler) Run(c *gin.Context) {
	operator := c.GetInt64(jwt.CtxUserID)
	zlog.Info("workflow run requested", zap.Int64("operator", operator))

	res, err := h.trigger.TriggerNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		if ce, ok := xerr.As(err); ok {
			back.Error(c, ce.Code, ce.Message)
			return
		}
		if res == nil {
			back.Result(c, nil, err)
			return
		}
		// 部分处理器失败时仍返回汇总，失败原因见 failures
		zlog.Warn("workflow run finished with failures", zap.Int64("operator", operator), zap.Error(err))
	}
	back.Success(c, res)
}
