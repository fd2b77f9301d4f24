package router

import (
	"fmt"
	"strings"

	"github.com/lumen-store/internal/cache"
	"github.com/lumen-store/internal/config"
	adminhandlers "github.com/lumen-store/internal/http/handlers/admin"
	publichandlers "github.com/lumen-store/internal/http/handlers/public"
	"github.com/lumen-store/internal/logger"
	"github.com/lumen-store/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ls"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:slug", publicHandler.GetProduct)
			public.GET("/orders/track/:order_no", publicHandler.TrackOrder)
		}

		// 游客购物车接口（以 X-Guest-Token 标识）
		guest := apiV1.Group("/guest")
		guest.Use(GuestTokenMiddleware())
		{
			guest.GET("/cart", publicHandler.GetGuestCart)
			guest.POST("/cart/items", publicHandler.AddGuestCartItem)
			guest.PUT("/cart/items/:product_id", publicHandler.UpdateGuestCartItem)
			guest.DELETE("/cart/items/:product_id", publicHandler.RemoveGuestCartItem)
			guest.DELETE("/cart", publicHandler.ClearGuestCart)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.GET("/cart", publicHandler.GetCart)
			user.POST("/cart/items", publicHandler.AddCartItem)
			user.PUT("/cart/items/:product_id", publicHandler.UpdateCartItem)
			user.DELETE("/cart/items/:product_id", publicHandler.RemoveCartItem)
			user.DELETE("/cart", publicHandler.ClearCart)
			user.POST("/cart/merge", GuestTokenMiddleware(), publicHandler.MergeCart)
			user.POST("/checkout/preview", publicHandler.CheckoutPreview)
			user.POST("/checkout", publicHandler.Checkout)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.GET("/orders/by-order-no/:order_no", publicHandler.GetMyOrderByNo)
			user.POST("/orders/:id/cancel", publicHandler.CancelMyOrder)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.GetAdminProfile)
				authorized.PUT("/password", adminHandler.ChangeAdminPassword)

				// 仪表盘
				authorized.GET("/dashboard", adminHandler.AdminDashboard)

				// 商品管理
				authorized.GET("/products", adminHandler.AdminListProducts)
				authorized.GET("/products/:id", adminHandler.AdminGetProduct)
				authorized.POST("/products", adminHandler.AdminCreateProduct)
				authorized.PUT("/products/:id", adminHandler.AdminUpdateProduct)
				authorized.POST("/products/:id/active", adminHandler.AdminSetProductActive)
				authorized.DELETE("/products/:id", adminHandler.AdminDeleteProduct)

				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:id", adminHandler.AdminGetOrder)
				authorized.GET("/orders/:id/history", adminHandler.AdminGetOrderHistory)
				authorized.POST("/orders/:id/status", adminHandler.AdminSetOrderStatus)
				authorized.POST("/orders/:id/shipping", adminHandler.AdminMarkShipped)
				authorized.POST("/orders/:id/payment", adminHandler.AdminUpdateOrderPayment)
				authorized.PATCH("/orders/:id/notes", adminHandler.AdminUpdateOrderNotes)

				// 用户管理
				authorized.GET("/users", adminHandler.AdminListUsers)
				authorized.GET("/users/:id", adminHandler.AdminGetUser)

				// 权限管理
				authorized.GET("/authz/roles/builtin", adminHandler.AdminListBuiltinRoles)
				authorized.POST("/authz/roles", adminHandler.AdminEnsureRole)
				authorized.POST("/authz/roles/:role/policies", adminHandler.AdminGrantRolePolicy)
				authorized.DELETE("/authz/roles/:role/policies", adminHandler.AdminRevokeRolePolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.AdminGetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.AdminSetAdminRoles)
				authorized.POST("/authz/reload", adminHandler.AdminReloadPolicies)
			}
		}
	}

	return r
}
