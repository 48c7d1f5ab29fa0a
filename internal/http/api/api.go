// Package api registers the portal's HTTP routes and middleware.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/auth"
	"github.com/silvanatrade/distributor-portal/internal/config"
	"github.com/silvanatrade/distributor-portal/internal/currency"
	"github.com/silvanatrade/distributor-portal/internal/http/api/handlers"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"github.com/silvanatrade/distributor-portal/internal/ratelimit"
	"github.com/silvanatrade/distributor-portal/internal/storage"
	"gorm.io/gorm"
)

// contextUserKey is the gin context key holding the authenticated *models.User.
const contextUserKey = "user"

// Route-level role allow-lists.
var (
	adminRoles    = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
	managerRoles  = []models.Role{models.RoleExportManager, models.RoleAdmin, models.RoleSuperAdmin}
	reporterRoles = []models.Role{models.RoleDistributor, models.RoleExportManager, models.RoleAdmin, models.RoleSuperAdmin}
)

// Deps carries the services the route tree is built from.
type Deps struct {
	DB       *gorm.DB                // DB is the shared gorm handle.
	Config   *config.Config          // Config is the loaded portal configuration.
	Auth     *auth.Service           // Auth performs authentication and account management.
	Currency *currency.Service       // Currency resolves and caches exchange rates.
	Recorder *activity.Recorder      // Recorder writes audit entries.
	Media    *storage.MediaStore     // Media stores uploaded files on disk.
	Limiter  *ratelimit.LoginLimiter // Limiter throttles login attempts per client IP.
}

// RegisterRoutes registers all portal routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	v1 := r.Group("/v1")

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Config)
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", loginThrottleMiddleware(deps.Limiter), authHandler.Login)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/refresh", authHandler.Refresh)

	authed := v1.Group("")
	authed.Use(authMiddleware(deps.Auth))
	authed.Use(mustChangePasswordMiddleware())

	authedAuth := authed.Group("/auth")
	authedAuth.POST("/logout", authHandler.Logout)
	authedAuth.POST("/change-password", authHandler.ChangePassword)
	authedAuth.GET("/me", authHandler.Me)

	userHandler := handlers.NewUserHandler(deps.DB, deps.Auth, deps.Recorder)
	users := authed.Group("/users")
	users.POST("", requireRole(adminRoles...), userHandler.Create)
	users.GET("", requireRole(managerRoles...), userHandler.List)
	users.GET("/:id", requireRole(managerRoles...), userHandler.Get)
	users.PUT("/:id", requireRole(adminRoles...), userHandler.Update)
	users.DELETE("/:id", requireRole(adminRoles...), userHandler.Delete)
	users.POST("/:id/unlock", requireRole(adminRoles...), userHandler.Unlock)
	users.POST("/:id/activate", requireRole(adminRoles...), userHandler.Activate)
	users.POST("/:id/deactivate", requireRole(adminRoles...), userHandler.Deactivate)

	distributorHandler := handlers.NewDistributorHandler(deps.DB)
	distributors := authed.Group("/distributors")
	distributors.POST("", requireRole(adminRoles...), distributorHandler.Create)
	distributors.GET("", requireRole(managerRoles...), distributorHandler.List)
	distributors.GET("/:id", distributorHandler.Get)
	distributors.PUT("/:id", requireRole(adminRoles...), distributorHandler.Update)
	distributors.DELETE("/:id", requireRole(adminRoles...), distributorHandler.Delete)

	currencyHandler := handlers.NewCurrencyHandler(deps.Currency, deps.Recorder)
	authed.GET("/currency-rates/:code", currencyHandler.GetRate)
	authed.GET("/currency-rates/:code/quarter-average", currencyHandler.QuarterAverage)

	reportHandler := handlers.NewReportHandler(deps.DB, deps.Currency, deps.Recorder)
	reports := authed.Group("/reports")
	reports.POST("/sales", requireRole(reporterRoles...), reportHandler.CreateSales)
	reports.GET("/sales", reportHandler.ListSales)
	reports.GET("/sales/:id", reportHandler.GetSales)
	reports.DELETE("/sales/:id", requireRole(adminRoles...), reportHandler.DeleteSales)
	reports.POST("/purchases", requireRole(reporterRoles...), reportHandler.CreatePurchase)
	reports.GET("/purchases", reportHandler.ListPurchases)
	reports.GET("/purchases/:id", reportHandler.GetPurchase)
	reports.DELETE("/purchases/:id", requireRole(adminRoles...), reportHandler.DeletePurchase)

	mediaHandler := handlers.NewMediaHandler(deps.DB, deps.Media, deps.Recorder)
	media := authed.Group("/media")
	media.POST("", mediaHandler.Upload)
	media.GET("", mediaHandler.List)
	media.GET("/:id", mediaHandler.Download)
	media.DELETE("/:id", requireRole(adminRoles...), mediaHandler.Delete)

	activityHandler := handlers.NewActivityHandler(deps.DB)
	authed.GET("/activity", requireRole(adminRoles...), activityHandler.List)
}

// authMiddleware validates bearer tokens and loads the user into the context.
func authMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			response.Abort(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "empty token")
			return
		}

		user, errAuth := svc.AuthenticateAccess(c.Request.Context(), token)
		if errAuth != nil {
			response.Fail(c, errAuth)
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// mustChangePasswordMiddleware blocks accounts flagged for a forced
// password change. Only the change-password and logout endpoints stay
// reachable so the user can clear the flag.
func mustChangePasswordMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.MustChangePassword {
			c.Next()
			return
		}
		switch c.FullPath() {
		case "/v1/auth/change-password", "/v1/auth/logout":
			c.Next()
		default:
			response.Abort(c, http.StatusForbidden, "password change required")
		}
	}
}

// requireRole admits only users whose role is in the allow-list.
func requireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			response.Abort(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		for _, role := range allowed {
			if user.Role == role {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "insufficient role")
	}
}

// loginThrottleMiddleware rejects clients that exceed the login rate.
func loginThrottleMiddleware(limiter *ratelimit.LoginLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.ClientIP()) {
			response.Abort(c, http.StatusTooManyRequests, "too many login attempts")
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user from the context, or nil.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
