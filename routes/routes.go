package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/idesign4u1/ShoppingListApp/handlers"
	"github.com/idesign4u1/ShoppingListApp/services"
	"github.com/idesign4u1/ShoppingListApp/store"
)

// Deps carries the shared service graph into route registration.
type Deps struct {
	Store       store.Store
	Users       *services.UserService
	Lists       *services.ListService
	Items       *services.ItemService
	Invitations *services.InvitationService
	Chat        *services.ChatService
	Catalog     *services.CatalogService
	Insights    *services.InsightsService
	Aggregator  *services.Aggregator
	WS          *handlers.WSHandler
}

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, d Deps) {
	authHandler := &handlers.AuthHandler{Users: d.Users}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
	rg.POST("/auth/logout", authHandler.Logout)
}

// SetupListRoutes sets up protected list, item and insight routes.
func SetupListRoutes(rg *gin.RouterGroup, d Deps) {
	listHandler := &handlers.ListHandler{
		Lists:      d.Lists,
		Users:      d.Users,
		Insights:   d.Insights,
		Aggregator: d.Aggregator,
		WS:         d.WS,
	}
	itemHandler := &handlers.ItemHandler{
		Items: d.Items,
		Lists: d.Lists,
		Users: d.Users,
		WS:    d.WS,
	}

	rg.GET("/lists", listHandler.GetAll)
	rg.POST("/lists", listHandler.Create)
	rg.GET("/lists/:id", listHandler.Get)
	rg.PUT("/lists/:id", listHandler.Update)
	rg.DELETE("/lists/:id", listHandler.Delete)
	rg.PUT("/lists/:id/budget", listHandler.SetBudget)
	rg.POST("/lists/:id/duplicate", listHandler.Duplicate)
	rg.GET("/lists/:id/insights", listHandler.GetInsights)

	rg.POST("/lists/:id/members", listHandler.AddMember)
	rg.DELETE("/lists/:id/members", listHandler.RemoveMember)

	rg.GET("/lists/:id/items", itemHandler.GetAll)
	rg.POST("/lists/:id/items", itemHandler.Create)
	rg.PUT("/lists/:id/items/:itemId", itemHandler.Update)
	rg.POST("/lists/:id/items/:itemId/toggle", itemHandler.Toggle)
	rg.POST("/lists/:id/items/:itemId/claim", itemHandler.Claim)
	rg.DELETE("/lists/:id/items/:itemId/claim", itemHandler.Unclaim)
	rg.POST("/lists/:id/items/:itemId/start", itemHandler.StartProgress)
	rg.PUT("/lists/:id/items/:itemId/assign", itemHandler.Assign)
	rg.PUT("/lists/:id/items/:itemId/price", itemHandler.UpdatePrice)
	rg.DELETE("/lists/:id/items/:itemId", itemHandler.Delete)
	rg.DELETE("/lists/:id/completed-items", itemHandler.DeleteCompleted)
}

// SetupUserRoutes sets up protected user account routes.
func SetupUserRoutes(rg *gin.RouterGroup, d Deps) {
	userHandler := &handlers.UserHandler{Users: d.Users}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
	rg.DELETE("/user/account", userHandler.DeleteAccount)
}

// SetupInvitationRoutes sets up protected invitation routes.
func SetupInvitationRoutes(rg *gin.RouterGroup, d Deps) {
	invitationHandler := &handlers.InvitationHandler{
		Invitations: d.Invitations,
		Lists:       d.Lists,
		Users:       d.Users,
		Store:       d.Store,
		WS:          d.WS,
	}

	rg.POST("/lists/:id/invite", invitationHandler.Send)
	rg.GET("/invitations", invitationHandler.GetMyPending)
	rg.POST("/invitations/:id/accept", invitationHandler.Accept)
	rg.POST("/invitations/:id/decline", invitationHandler.Decline)
}

// SetupChatRoutes sets up protected chat routes. The reserved id "global"
// addresses the shared room.
func SetupChatRoutes(rg *gin.RouterGroup, d Deps) {
	chatHandler := &handlers.ChatHandler{Chat: d.Chat, Users: d.Users, WS: d.WS}

	rg.GET("/chats/:id/messages", chatHandler.History)
	rg.POST("/chats/:id/messages", chatHandler.Send)
}

// SetupCatalogRoutes sets up protected catalog suggestion routes.
func SetupCatalogRoutes(rg *gin.RouterGroup, d Deps) {
	catalogHandler := &handlers.CatalogHandler{Catalog: d.Catalog}

	rg.GET("/catalog/search", catalogHandler.Search)
	rg.POST("/catalog/:id/used", catalogHandler.RecordUse)
}
