package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/ratelimit"
	"github.com/adanyl0v/taskboard/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleRateLimitMiddleware(c *gin.Context)

	HandleCreateUser(c *gin.Context)
	HandleGetUsers(c *gin.Context)
	HandleGetCurrentUser(c *gin.Context)
	HandleUpdateCurrentUser(c *gin.Context)
	HandleDeleteCurrentUser(c *gin.Context)
	HandleDeleteUser(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleHealth(c *gin.Context)
}

// Limiter decides whether a client identified by key may issue another
// request.
type Limiter interface {
	Allow(ctx context.Context, key string) (*ratelimit.Result, error)
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type handlerImpl struct {
	logger  zerolog.Logger
	auth    services.AuthService
	users   services.UserService
	tasks   services.TaskService
	storage Pinger
	limiter Limiter
}

// New builds the v1 handler. A nil limiter disables throttling.
func New(
	logger zerolog.Logger,
	authService services.AuthService,
	userService services.UserService,
	taskService services.TaskService,
	storage Pinger,
	limiter Limiter,
) Handler {
	return &handlerImpl{
		logger:  logger,
		auth:    authService,
		users:   userService,
		tasks:   taskService,
		storage: storage,
		limiter: limiter,
	}
}

func RegisterRoutes(router gin.IRouter, h Handler) {
	router.GET("/health", h.HandleHealth)

	router = router.Group("", h.HandleRateLimitMiddleware)

	authRouter := router.Group("/auth")
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	userRouter := router.Group("/user")
	userRouter.POST("", h.HandleCreateUser)
	userRouter.GET("", h.HandleAuthMiddleware, h.HandleGetUsers)
	userRouter.GET("/me", h.HandleAuthMiddleware, h.HandleGetCurrentUser)
	userRouter.PATCH("/me", h.HandleAuthMiddleware, h.HandleUpdateCurrentUser)
	userRouter.DELETE("/me", h.HandleAuthMiddleware, h.HandleDeleteCurrentUser)
	userRouter.DELETE("/:id", h.HandleAuthMiddleware, h.HandleDeleteUser)

	taskRouter := router.Group("/task", h.HandleAuthMiddleware)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.GET("/:id", h.HandleGetTask)
	taskRouter.PATCH("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)
}
