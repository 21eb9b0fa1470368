package http

import (
	"net/http"

	"ClientPulse/internal/config"
	jwtMiddleware "ClientPulse/internal/middleware/jwt"
	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	notifService "ClientPulse/internal/modules/notification/application/service"
	notifHandler "ClientPulse/internal/modules/notification/interface/http"
	workflowHandler "ClientPulse/internal/modules/workflow/interface/http"
	"ClientPulse/pkg/back"
	"ClientPulse/pkg/secure"
	"ClientPulse/pkg/util/myjwt"
	"ClientPulse/pkg/ws"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps 路由依赖，由 cmd 组装
type Deps struct {
	Signer  *myjwt.Signer
	Hub     *ws.Hub
	Inbox   notifService.InboxService
	Trigger workflowHandler.Trigger
}

func NewEngine(conf *config.Config, deps Deps) *gin.Engine {
	ge := gin.New()
	ge.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	ge.Use(cors.New(corsConfig))
	ge.Use(secure.Handler(conf.MainConfig.Host, conf.MainConfig.Port, conf.SecurityConfig.SSLRedirect))

	inboxH := notifHandler.NewInboxHandler(deps.Inbox)
	wsH := notifHandler.NewWsHandler(deps.Hub, deps.Signer)
	workflowH := workflowHandler.NewWorkflowHandler(deps.Trigger)

	ge.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	ge.GET("/wss", wsH.Connect)

	authed := ge.Group("/")
	authed.Use(jwtMiddleware.Auth(deps.Signer))
	authed.GET("/auth/ping", func(c *gin.Context) {
		back.Success(c, gin.H{
			"user_id": c.GetInt64(jwtMiddleware.CtxUserID),
			"role":    c.GetString(jwtMiddleware.CtxRole),
		})
	})
	authed.GET("/notification/list", inboxH.ListNotifications)
	authed.GET("/notification/unreadCount", inboxH.UnreadCount)
	authed.GET("/notification/preference", inboxH.GetPreference)
	authed.POST("/notification/preference", inboxH.UpdatePreference)
	authed.POST("/workflow/run", jwtMiddleware.RequireRole(crmEntity.RoleAdmin), workflowH.Run)

	return ge
}
