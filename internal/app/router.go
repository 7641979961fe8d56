package app

import (
	"fmt"
	"log"
	"time"

	"github.com/sdp-tech/SASM-BE-sub000/internal/config"
	"github.com/sdp-tech/SASM-BE-sub000/internal/middleware"
	"github.com/sdp-tech/SASM-BE-sub000/internal/model"
	"github.com/sdp-tech/SASM-BE-sub000/internal/repository"
	"github.com/sdp-tech/SASM-BE-sub000/internal/service"
	"github.com/sdp-tech/SASM-BE-sub000/internal/storage"
	"github.com/sdp-tech/SASM-BE-sub000/internal/util"
	"github.com/sdp-tech/SASM-BE-sub000/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// handlers groups every HTTP handler the API exposes.
type handlers struct {
	post         *PostHandler
	comment      *CommentHandler
	like         *LikeHandler
	user         *UserHandler
	notification *NotificationHandler
	forest       *ForestHandler
	curation     *CurationHandler
	place        *PlaceHandler
	mypage       *MypageHandler
}

// NewRouter connects the database, cache, queue and blob store, builds the
// services and returns the engine with a function that releases the
// background resources.
func NewRouter(cfg *config.Config) (*gin.Engine, func()) {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware(cfg))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	if cfg.MetricsEnabled {
		metrics := middleware.NewMetrics()
		r.Use(metrics.Middleware())
		r.GET("/metrics", metrics.Handler())
		log.Println("Prometheus metrics exposed on /metrics")
	}

	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}
	if err := migrate(db); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}
	fixLikesTableConstraints(db)

	blobs, err := storage.New(cfg)
	if err != nil {
		panic("Failed to initialize blob storage: " + err.Error())
	}
	log.Printf("Blob storage backend: %s", cfg.BlobBackend)

	redisClient := initRedisWithRetry(cfg)
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	postRepo := repository.NewPostRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db, redisClient)
	likeRepo := repository.NewLikeRepository(db, redisClient)
	followRepo := repository.NewFollowRepository(db, redisClient)
	reportRepo := repository.NewReportRepository(db)
	postViewRepo := repository.NewPostViewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)
	forestRepo := repository.NewForestRepository(db)
	forestCommentRepo := repository.NewForestCommentRepository(db)
	curationRepo := repository.NewCurationRepository(db)
	placeRepo := repository.NewPlaceRepository(db, redisClient)

	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	var publisher service.Publisher
	if rabbitMQ != nil {
		publisher = rabbitMQ
	}
	notificationService := service.NewNotificationService(notificationRepo, publisher, wsHub)
	wsHub.OnRead(func(userID, notificationID string) {
		if err := notificationService.MarkAsRead(notificationID, userID); err != nil {
			log.Printf("Failed to mark notification %s as read: %v", notificationID, err)
		}
	})

	var notificationWorker *service.NotificationWorker
	if rabbitMQ != nil {
		notificationWorker = service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
		} else {
			log.Println("Notification worker started successfully")
		}
	} else {
		log.Println("Notification worker not started - notifications go straight to websocket clients")
	}

	// Initialize services
	postViewService := service.NewPostViewService(postViewRepo, postRepo)
	postService := service.NewPostService(postRepo, boardRepo, commentRepo, likeRepo, reportRepo, postViewService, blobs)
	commentService := service.NewCommentService(commentRepo, userRepo, postRepo, boardRepo, likeRepo, blobs, notificationService)
	likeService := service.NewLikeService(likeRepo, postRepo)
	followService := service.NewFollowService(followRepo, userRepo, notificationService)
	userService := service.NewUserService(userRepo, blobs)
	forestService := service.NewForestService(forestRepo, forestCommentRepo, likeRepo, blobs)
	curationService := service.NewCurationService(curationRepo, placeRepo, likeRepo, blobs)
	placeService := service.NewPlaceService(placeRepo, likeRepo, blobs)
	mypageService := service.NewMypageService(userRepo, followRepo, postRepo, commentRepo, forestRepo, curationRepo, placeRepo)

	h := &handlers{
		post:         NewPostHandler(postService),
		comment:      NewCommentHandler(commentService),
		like:         NewLikeHandler(likeService),
		user:         NewUserHandler(userService, followService),
		notification: NewNotificationHandler(notificationService),
		forest:       NewForestHandler(forestService),
		curation:     NewCurationHandler(curationService),
		place:        NewPlaceHandler(placeService),
		mypage:       NewMypageHandler(mypageService),
	}
	registerRoutes(r, h, cfg.JWTSecret)

	// WebSocket route
	serveWS := websocket.ServeWS(wsHub, cfg.JWTSecret, allowedOrigins(cfg))
	r.GET("/ws", func(c *gin.Context) {
		serveWS.ServeHTTP(c.Writer, c.Request)
	})

	cleanup := func() {
		if notificationWorker != nil {
			notificationWorker.Stop()
		}
		wsHub.Stop()
		if rabbitMQ != nil {
			if err := rabbitMQ.Close(); err != nil {
				log.Printf("Failed to close RabbitMQ: %v", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Printf("Failed to close Redis: %v", err)
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return r, cleanup
}

// registerRoutes mounts the API on r. Reads that personalise their answer
// (liked_by_me, drafts, view counting) run behind OptionalAuth.
func registerRoutes(r *gin.Engine, h *handlers, jwtSecret string) {
	api := r.Group("/api/v1")
	public := api.Group("", middleware.OptionalAuth(jwtSecret))
	protected := api.Group("", middleware.Auth(jwtSecret))
	admin := api.Group("/admin", middleware.Auth(jwtSecret), middleware.RequireAdmin())

	// Boards and posts
	public.GET("/boards", h.post.GetBoards)
	public.GET("/boards/:id", h.post.GetBoard)
	public.GET("/posts", h.post.ListPosts)
	public.GET("/posts/:id", h.post.GetPost)
	public.GET("/posts/:id/comments", h.comment.GetCommentsByPost)
	protected.POST("/posts", h.post.CreatePost)
	protected.PATCH("/posts/:id", h.post.UpdatePost)
	protected.DELETE("/posts/:id", h.post.DeletePost)
	protected.POST("/reports", h.post.Report)
	admin.POST("/boards", h.post.CreateBoard)

	// Post comments
	public.GET("/comments/:id", h.comment.GetComment)
	protected.POST("/comments", h.comment.CreateComment)
	protected.PATCH("/comments/:id", h.comment.UpdateComment)
	protected.DELETE("/comments/:id", h.comment.DeleteComment)

	// Likes share one toggle per target type
	likeTargets := []struct {
		path       string
		targetType string
	}{
		{"/posts", model.TargetTypePost},
		{"/comments", model.TargetTypePostComment},
		{"/forests", model.TargetTypeForest},
		{"/forests/comments", model.TargetTypeForestComment},
		{"/curations", model.TargetTypeCuration},
		{"/places", model.TargetTypePlace},
	}
	for _, t := range likeTargets {
		protected.POST(t.path+"/:id/like", h.like.Toggle(t.targetType))
		protected.GET(t.path+"/:id/like", h.like.Status(t.targetType))
	}

	// Users and follows
	protected.GET("/users/me", h.user.GetMe)
	protected.PATCH("/users/me", h.user.UpdateProfile)
	public.GET("/users/search", h.user.SearchUsers)
	public.GET("/users/:id", h.user.GetUser)
	public.GET("/users/:id/followers", h.user.GetFollowers)
	public.GET("/users/:id/following", h.user.GetFollowing)
	protected.POST("/users/:id/follow", h.user.ToggleFollow)
	protected.GET("/users/:id/follow", h.user.FollowStatus)

	// Notifications
	protected.GET("/notifications", h.notification.GetNotifications)
	protected.GET("/notifications/unread-count", h.notification.GetUnreadCount)
	protected.PUT("/notifications/read-all", h.notification.MarkAllAsRead)
	protected.PUT("/notifications/:id/read", h.notification.MarkAsRead)
	protected.DELETE("/notifications/:id", h.notification.DeleteNotification)

	// Forests
	public.GET("/forests/categories", h.forest.ListCategories)
	public.GET("/forests/categories/:id/semi-categories", h.forest.ListSemiCategories)
	public.GET("/forests", h.forest.ListForests)
	public.GET("/forests/:id", h.forest.GetForest)
	public.GET("/forests/:id/comments", h.forest.ListComments)
	protected.POST("/forests", h.forest.CreateForest)
	protected.PATCH("/forests/:id", h.forest.UpdateForest)
	protected.DELETE("/forests/:id", h.forest.DeleteForest)
	protected.POST("/forests/:id/comments", h.forest.CreateComment)
	protected.PATCH("/forests/comments/:id", h.forest.UpdateComment)
	protected.DELETE("/forests/comments/:id", h.forest.DeleteComment)

	// Curations
	public.GET("/curations", h.curation.ListCurations)
	public.GET("/curations/selected", h.curation.ListSelected)
	public.GET("/curations/:id", h.curation.GetCuration)
	protected.POST("/curations", h.curation.CreateCuration)
	protected.PATCH("/curations/:id", h.curation.UpdateCuration)
	protected.DELETE("/curations/:id", h.curation.DeleteCuration)

	// Places and visitor reviews
	public.GET("/places", h.place.ListPlaces)
	public.GET("/places/:id", h.place.GetPlace)
	public.GET("/places/:id/reviews", h.place.ListReviews)
	protected.POST("/places/:id/reviews", h.place.CreateReview)
	protected.PATCH("/reviews/:id", h.place.UpdateReview)
	protected.DELETE("/reviews/:id", h.place.DeleteReview)
	admin.POST("/places", h.place.CreatePlace)

	// Mypage
	public.GET("/mypage/:id", h.mypage.GetProfile)
	public.GET("/mypage/:id/posts", h.mypage.MyPosts())
	public.GET("/mypage/:id/comments", h.mypage.MyComments())
	public.GET("/mypage/:id/forests", h.mypage.MyForests())
	public.GET("/mypage/:id/reviews", h.mypage.MyReviews())
	public.GET("/mypage/:id/curations", h.mypage.MyCurations)
	public.GET("/mypage/:id/likes/places", h.mypage.LikedPlaces())
	public.GET("/mypage/:id/likes/curations", h.mypage.LikedCurations())
	public.GET("/mypage/:id/likes/forests", h.mypage.LikedForests())
	public.GET("/mypage/:id/likes/posts", h.mypage.LikedPosts())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// migrate creates or updates every table. Parents come before the rows that
// reference them.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.Post{},
		&model.PostHashtag{},
		&model.PostPhoto{},
		&model.PostComment{},
		&model.PostCommentPhoto{},
		&model.PostView{},
		&model.Report{},
		&model.Like{},
		&model.Follow{},
		&model.Notification{},
		&model.Category{},
		&model.SemiCategory{},
		&model.Forest{},
		&model.ForestHashtag{},
		&model.ForestPhoto{},
		&model.ForestComment{},
		&model.Place{},
		&model.VisitorReview{},
		&model.VisitorReviewPhoto{},
		&model.Curation{},
		&model.CurationMap{},
	)
}

// retry calls connect with exponential backoff until it succeeds or the
// attempts run out.
func retry[T any](name string, connect func() (T, error)) (T, bool) {
	const (
		maxRetries   = 5
		initialDelay = 2 * time.Second
		maxDelay     = 30 * time.Second
	)

	var zero T
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client, err := connect()
		if err == nil {
			log.Printf("%s connected successfully on attempt %d", name, attempt)
			return client, true
		}

		if attempt == maxRetries {
			log.Printf("Warning: Failed to connect to %s after %d attempts: %v", name, maxRetries, err)
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt-1))
		if delay > maxDelay {
			delay = maxDelay
		}
		log.Printf("Failed to connect to %s (attempt %d/%d): %v. Retrying in %v...", name, attempt, maxRetries, err, delay)
		time.Sleep(delay)
	}
	return zero, false
}

// initRedisWithRetry returns nil when Redis stays unreachable; repositories
// then skip caching.
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	client, ok := retry("Redis", func() (*util.RedisClient, error) { return util.NewRedisClient(cfg) })
	if !ok {
		log.Println("Note: Application will continue without Redis caching")
		return nil
	}
	return client
}

// initRabbitMQWithRetry returns nil when RabbitMQ stays unreachable;
// notifications are then pushed to websocket clients directly.
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	client, ok := retry("RabbitMQ", func() (*util.RabbitMQClient, error) { return util.NewRabbitMQClient(cfg) })
	if !ok {
		return nil
	}
	return client
}

// fixLikesTableConstraints removes foreign keys on likes.target_id. The
// column is polymorphic (posts, comments, forests, curations, places) so no
// single foreign key can hold, but AutoMigrate may have created one.
func fixLikesTableConstraints(db *gorm.DB) {
	query := `
		SELECT tc.constraint_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_name = 'likes'
		AND tc.constraint_type = 'FOREIGN KEY'
		AND kcu.column_name = 'target_id'
	`

	var constraints []struct {
		ConstraintName string `gorm:"column:constraint_name"`
	}
	if err := db.Raw(query).Scan(&constraints).Error; err != nil {
		log.Printf("Warning: Failed to query foreign key constraints on likes table: %v", err)
		return
	}

	for _, constraint := range constraints {
		dropQuery := fmt.Sprintf("ALTER TABLE likes DROP CONSTRAINT IF EXISTS %q", constraint.ConstraintName)
		if err := db.Exec(dropQuery).Error; err != nil {
			log.Printf("Warning: Failed to drop constraint %s: %v", constraint.ConstraintName, err)
		} else {
			log.Printf("Dropped foreign key constraint on likes.target_id: %s", constraint.ConstraintName)
		}
	}
}

// allowedOrigins is CLIENT_URL plus CORS_ORIGINS.
func allowedOrigins(cfg *config.Config) []string {
	var origins []string
	for _, o := range append([]string{cfg.ClientURL}, cfg.AllowedOrigins...) {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := allowedOrigins(cfg)
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	return cors.New(corsConfig)
}
