// Package api assembles the router and wires every endpoint to its
// handler and middleware chain
package api

import (
	"fmt"
	"instabytes/moments-api/app/auth"
	"instabytes/moments-api/app/media"
	"instabytes/moments-api/app/post"
	"instabytes/moments-api/app/root"
	"instabytes/moments-api/config"
	"instabytes/moments-api/db"
	"instabytes/moments-api/internal"
	"instabytes/moments-api/internal/service"
	"instabytes/moments-api/pkg/middleware"
	"instabytes/moments-api/pkg/security"
	"instabytes/moments-api/storage"
	"os"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

func NewRouter() (*gin.Engine, error) {
	makeLogger()

	d := &internal.Deps{}

	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = database

	st, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage, %w", err)
	}
	d.Storage = st

	d.Hasher = security.New()
	d.Tokens = security.NewTokenIssuer()
	d.Tagger = service.NewTagger(database, st, service.NewGeminiCaptioner())
	d.Uploader = service.NewUploader(database, st, d.Tagger)

	if config.PurgeRequested() {
		service.PurgeDeletedOnce(database, st)
		os.Exit(0)
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{viper.GetString("host.frontend_origin")},
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("user_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	maxUploadSize := viper.GetInt64("upload.max_size")
	router.MaxMultipartMemory = 5 << 20

	rateLimit := viper.GetInt("security.rate_limit")

	jwt := middleware.NewAuthMiddleware(d.DB, d.Tokens)
	maybeJwt := middleware.NewOptionalAuthMiddleware(d.DB, d.Tokens)
	ownsPost := middleware.NewOwnershipMiddleware(post.ResolveOwner(d))
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})

	m := router.Group("", rateLimiter)
	{
		// HEAD /heartbeat 	-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /validate	-> Validates a session token
		m.GET("/validate", jwt, root.Validate)
	}

	// Optional auth so access logs carry a user_id when a client holding
	// a session hits the public auth endpoints
	a := m.Group("/auth", middleware.BodySizeLimiter(1<<20), maybeJwt)
	{
		// POST /auth/register 		-> Registers a new user
		a.POST("/register", func(c *gin.Context) { auth.Register(c, d) })

		// POST /auth/login 		-> Logs in a user and returns a session token
		a.POST("/login", func(c *gin.Context) { auth.Login(c, d) })

		// GET /auth/profile		-> Returns the profile of the logged in user
		a.GET("/profile", jwt, cacheFor(30), func(c *gin.Context) { auth.Profile(c, d) })

		// POST /auth/recover		-> Requests a password reset token
		a.POST("/recover", func(c *gin.Context) { auth.RequestReset(c, d) })

		// POST /auth/reset		-> Completes a password reset with a token
		a.POST("/reset", func(c *gin.Context) { auth.CompleteReset(c, d) })

		// PUT /auth/password		-> Changes the password of the logged in user
		a.PUT("/password", jwt, func(c *gin.Context) { auth.ChangePassword(c, d) })
	}

	me := m.Group("/media", jwt)
	{
		// GET /media			-> Lists the user's media library
		me.GET("", func(c *gin.Context) { media.List(c, d) })

		// GET /media/search		-> Searches the library by tags
		me.GET("/search", cacheFor(15), func(c *gin.Context) { media.Search(c, d) })

		// GET /media/:id		-> Returns a media record by its ID if the user owns it
		me.GET("/:id", func(c *gin.Context) { media.Fetch(c, d) })

		// GET /media/:id/file		-> Streams the stored bytes
		me.GET("/:id/file", func(c *gin.Context) { media.Serve(c, d) })

		// POST /media         		-> Uploads a new file and creates its record
		me.POST("", middleware.BodySizeLimiter(maxUploadSize), func(c *gin.Context) { media.Upload(c, d) })

		// POST /media/:id/retag	-> Re-triggers AI tagging for a stuck or failed image
		me.POST("/:id/retag", func(c *gin.Context) { media.Retag(c, d) })

		// PATCH /media/:id		-> Updates filename/description
		me.PATCH("/:id", middleware.BodySizeLimiter(1<<20), func(c *gin.Context) { media.Edit(c, d) })

		// DELETE /media/:id		-> Soft deletes a media record owned by the user
		me.DELETE("/:id", func(c *gin.Context) { media.Delete(c, d) })
	}

	p := m.Group("/posts", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// GET /posts			-> Lists the user's posts
		p.GET("", func(c *gin.Context) { post.List(c, d) })

		// POST /posts			-> Creates a new post
		p.POST("", func(c *gin.Context) { post.Create(c, d) })

		// GET /posts/:id		-> Returns a post by its ID if the user owns it
		p.GET("/:id", func(c *gin.Context) { post.Fetch(c, d) })

		// PATCH /posts/:id		-> Updates a post. Non-owners get a 403 here
		p.PATCH("/:id", ownsPost, func(c *gin.Context) { post.Edit(c, d) })

		// DELETE /posts/:id		-> Soft deletes a post. Non-owners get a 403 here
		p.DELETE("/:id", ownsPost, func(c *gin.Context) { post.Delete(c, d) })
	}

	d.Tagger.StartWorkerPool()

	// Records can get stuck in processing if the process dies mid-job
	service.StaleRetag(time.Minute*10, time.Minute*15, d.DB, d.Tagger)

	// Soft deleted rows expire rarely so checking daily is plenty
	service.PurgeDeleted(time.Hour*24, d.DB, d.Storage)

	return router, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()

	level, err := zapcore.ParseLevel(viper.GetString("app.log_level"))
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

// cacheFor caches responses per user and URI. Keying on the URI alone
// would leak one user's results to another.
func cacheFor(sec int) gin.HandlerFunc {
	return cache.Cache(store, time.Second*time.Duration(sec),
		cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
			return true, cache.Strategy{
				CacheKey: c.GetString("userID") + ":" + c.Request.RequestURI,
			}
		}),
	)
}
