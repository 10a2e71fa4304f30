package v1

import (
	"github.com/gin-gonic/gin"

	"crm-server/internal/domain/user"
	"crm-server/internal/infrastructure/auth"
	"crm-server/internal/interfaces/httpserver/handlers"
	"crm-server/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	tokens   *auth.TokenManager
}

func NewRoutes(provider *handlers.Provider, tokens *auth.TokenManager) *Routes {
	return &Routes{handlers: provider, tokens: tokens}
}

// Register attaches all v1 routes under the /v1 prefix. The chat and
// broadcast-auth endpoints are public; everything else sits behind the
// session token.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	chat := group.Group("/chat")
	chat.POST("/handshake", r.handlers.Chat.Handshake)
	chat.POST("/conversations", r.handlers.Chat.StartConversation)
	chat.GET("/conversations/:id/messages", r.handlers.Chat.GetMessages)
	chat.POST("/conversations/:id/messages", r.handlers.Chat.SendMessage)

	group.POST("/broadcast/auth", r.handlers.Broadcast.Auth)
	group.POST("/auth/login", r.handlers.Auth.Login)

	agent := group.Group("/agent")
	agent.Use(middlewares.RequireAuth(r.tokens), middlewares.RequireRole(user.RoleAdmin, user.RoleSalesAgent))
	agent.GET("/queue", r.handlers.Agent.Queue)
	agent.GET("/conversations", r.handlers.Agent.MyConversations)
	agent.GET("/conversations/:id", r.handlers.Agent.GetConversation)
	agent.POST("/conversations/:id/assign", r.handlers.Agent.Assign)
	agent.POST("/conversations/:id/messages", r.handlers.Agent.SendMessage)
	agent.POST("/conversations/:id/resolve", r.handlers.Agent.Resolve)

	admin := group.Group("/admin")
	admin.Use(middlewares.RequireAuth(r.tokens), middlewares.RequireRole(user.RoleAdmin))
	admin.GET("/users", r.handlers.Users.List)
	admin.POST("/users", r.handlers.Users.Create)
	admin.PATCH("/users/:id", r.handlers.Users.Update)
	admin.POST("/users/:id/ban", r.handlers.Users.Ban)
	admin.POST("/users/:id/reactivate", r.handlers.Users.Reactivate)
}
