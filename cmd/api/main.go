package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classtrack/internal/account"
	"classtrack/internal/auth"
	"classtrack/internal/avatar"
	"classtrack/internal/config"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/metrics"
	"classtrack/internal/queue"
	"classtrack/internal/requests"
	"classtrack/internal/rfid"
	"classtrack/internal/rooms"
	"classtrack/internal/session"
	"classtrack/internal/store"
	"classtrack/internal/treestore"
	"classtrack/internal/validate"
	"classtrack/internal/verify"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, dbErr := store.NewDB(cfg.DatabaseURL)
	if dbErr != nil {
		log.Printf("warning: db not reachable, swipe audit disabled: %v", dbErr)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var tree treestore.Store
	var cache session.Cache
	if cfg.StoreBackend == "memory" {
		tree = treestore.NewMemory()
		cache = session.NewMemoryCache()
	} else {
		tree = treestore.NewRedis(redisClient.Client)
		cache = session.NewRedisCache(redisClient.Client)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	var auditRepo *rfid.Repository
	if db != nil && dbErr == nil {
		auditRepo = rfid.NewRepository(db.Client)
		if err := auditRepo.EnsureSchema(context.Background()); err != nil {
			return err
		}
	}
	cards := rfid.NewService(tree, auditRepo, q)
	board := rooms.NewService(tree, cards)
	accounts := account.NewService(tree)
	inbox := requests.NewService(tree, board)

	var mailer verify.Mailer = verify.ConsoleMailer{}
	if cfg.SendgridAPIKey != "" {
		mailer = verify.NewSendgridMailer(cfg.SendgridAPIKey, cfg.FromEmail)
		log.Println("SendGrid mailer configured")
	} else {
		log.Println("SendGrid not configured, verification codes go to the log")
	}
	codes := verify.NewService(cache, mailer, cfg.ResendCooldown)

	ctx := context.Background()
	if err := board.SeedReaders(ctx, cfg.ReaderSeeds); err != nil {
		log.Printf("warning: reader seed failed: %v", err)
	}

	var cdn *avatar.Client
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cdn = avatar.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		log.Println("Cloudinary configured:", cfg.CloudinaryCloudName)
	} else {
		log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := dbErr == nil
		status := http.StatusOK
		if cfg.StoreBackend != "memory" && !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// The collection names stay static route segments; a role wildcard at
	// this level would collide with /v1/auth and /v1/verification.
	register := func(role account.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			var req struct {
				FirstName       string `json:"firstName"`
				LastName        string `json:"lastName"`
				ID              string `json:"id"`
				Email           string `json:"email"`
				Password        string `json:"password"`
				ConfirmPassword string `json:"confirmPassword"`
				Institute       string `json:"institute"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			acct, err := accounts.Register(c.Request.Context(), account.NewAccount{
				FirstName:       req.FirstName,
				LastName:        req.LastName,
				ID:              req.ID,
				Email:           req.Email,
				Password:        req.Password,
				ConfirmPassword: req.ConfirmPassword,
				Institute:       req.Institute,
				Role:            role,
			})
			if err != nil {
				respondErr(c, err)
				return
			}
			metrics.Registrations.WithLabelValues(string(role)).Inc()
			c.JSON(http.StatusCreated, gin.H{"account": acct})
		}
	}
	login := func(role account.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			var req struct {
				ID       string `json:"id" binding:"required"`
				Password string `json:"password" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			acct, err := accounts.Login(c.Request.Context(), role, req.ID, req.Password)
			if err != nil {
				respondErr(c, err)
				return
			}

			tokens, err := auth.Issue(acct.ID, string(role), cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
				return
			}

			snapshot, _ := json.Marshal(acct)
			if err := cache.SaveUser(c.Request.Context(), sessionClient(string(role), acct.ID), snapshot); err != nil {
				log.Printf("session save failed for %s: %v", acct.ID, err)
			}

			metrics.Logins.WithLabelValues(string(role)).Inc()
			c.JSON(http.StatusOK, gin.H{
				"access_token":  tokens.AccessToken,
				"refresh_token": tokens.RefreshToken,
				"expires_at":    tokens.AccessExp.Unix(),
				"account":       acct,
			})
		}
	}
	r.POST("/v1/students/register", register(account.RoleStudent))
	r.POST("/v1/instructors/register", register(account.RoleInstructor))
	r.POST("/v1/students/login", login(account.RoleStudent))
	r.POST("/v1/instructors/login", login(account.RoleInstructor))

	r.POST("/v1/auth/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, err := auth.Parse(req.RefreshToken, cfg.JWTSigningKey, cfg.JWTIssuer)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		tokens, err := auth.Issue(claims.Subject, claims.Role, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	// Verification codes are keyed by email: the clients had exactly one
	// pending code per device, the server keeps one per address.
	r.POST("/v1/verification/send", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, err := codes.Generate(c.Request.Context(), req.Email, req.Email); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	})

	r.POST("/v1/verification/resend", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := codes.Resend(c.Request.Context(), req.Email, req.Email); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	})

	r.POST("/v1/verification/check", func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required,email"`
			Code  string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := codes.Check(c.Request.Context(), req.Email, req.Email, req.Code); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"verified": true})
	})

	r.GET("/v1/buildings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"buildings": rooms.Buildings})
	})

	r.GET("/v1/buildings/:building/rooms", func(c *gin.Context) {
		b, ok := rooms.BuildingFor(c.Param("building"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown building"})
			return
		}
		list, err := board.ListRooms(c.Request.Context(), b)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"building": b.Key, "rooms": list})
	})

	r.GET("/v1/buildings/:building/rooms/:room", func(c *gin.Context) {
		b, ok := rooms.BuildingFor(c.Param("building"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown building"})
			return
		}
		info, err := board.RoomStatus(c.Request.Context(), b, c.Param("room"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	})

	r.POST("/v1/swipes", auth.ReaderAuth(cfg.SwipeKey), func(c *gin.Context) {
		var in rfid.SwipeInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := cards.Swipe(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}
		direction := "out"
		if rec.Open() {
			direction = "in"
		}
		metrics.Swipes.WithLabelValues(direction).Inc()
		c.JSON(http.StatusAccepted, gin.H{"record": rec, "direction": direction})
	})

	authGroup := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/logout", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		if err := cache.Clear(c.Request.Context(), sessionClient(claims.Role, claims.Subject)); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logged_out": true})
	})

	authGroup.GET("/profile", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		if snapshot, err := cache.LoadUser(c.Request.Context(), sessionClient(claims.Role, claims.Subject)); err == nil {
			c.Data(http.StatusOK, "application/json", snapshot)
			return
		}
		role, _ := account.ParseRole(claims.Role)
		acct, err := accounts.Get(c.Request.Context(), role, claims.Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, acct)
	})

	authGroup.PUT("/profile", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		var upd account.ProfileUpdate
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role, _ := account.ParseRole(claims.Role)
		acct, err := accounts.UpdateProfile(c.Request.Context(), role, claims.Subject, upd)
		if err != nil {
			respondErr(c, err)
			return
		}
		snapshot, _ := json.Marshal(acct)
		_ = cache.SaveUser(c.Request.Context(), sessionClient(claims.Role, claims.Subject), snapshot)
		c.JSON(http.StatusOK, acct)
	})

	// Avatar upload accepts a multipart file or a JSON base64 data URL and
	// stores the hosted URL on the profile.
	authGroup.POST("/avatar", func(c *gin.Context) {
		if cdn == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
			return
		}
		claims, _ := auth.ClaimsFrom(c)

		var result *avatar.UploadResult
		var err error
		if strings.Contains(c.ContentType(), "multipart/form-data") {
			file, header, ferr := c.Request.FormFile("file")
			if ferr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
				return
			}
			defer file.Close()
			data, ferr := io.ReadAll(file)
			if ferr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
				return
			}
			result, err = cdn.UploadBytes(data, header.Filename)
		} else {
			var body struct {
				Data string `json:"data" binding:"required"`
			}
			if berr := c.ShouldBindJSON(&body); berr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
				return
			}
			result, err = cdn.UploadDataURL(body.Data)
		}
		if err != nil {
			log.Printf("avatar upload failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
			return
		}

		role, _ := account.ParseRole(claims.Role)
		acct, err := accounts.UpdateProfile(c.Request.Context(), role, claims.Subject, account.ProfileUpdate{AvatarURL: result.SecureURL})
		if err != nil {
			respondErr(c, err)
			return
		}
		snapshot, _ := json.Marshal(acct)
		_ = cache.SaveUser(c.Request.Context(), sessionClient(claims.Role, claims.Subject), snapshot)
		c.JSON(http.StatusOK, gin.H{"url": result.SecureURL, "account": acct})
	})

	authGroup.POST("/buildings/:building/rooms/:room/requests", func(c *gin.Context) {
		b, ok := rooms.BuildingFor(c.Param("building"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown building"})
			return
		}
		claims, _ := auth.ClaimsFrom(c)
		var body struct {
			RecipientID string `json:"sendToId"`
			requests.Request
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		body.Request.BuildingType = b.Name
		body.Request.RoomNumber = c.Param("room")
		if body.Request.RequesterID == "" {
			body.Request.RequesterID = claims.Subject
		}
		req, err := inbox.Create(c.Request.Context(), body.RecipientID, body.Request)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"request": req, "sendToId": body.RecipientID})
	})

	authGroup.POST("/rooms/:room/claims", func(c *gin.Context) {
		room := c.Param("room")
		var body struct {
			Kind string `json:"kind" binding:"required"` // occupied | vacant
			requests.Request
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var key string
		var err error
		switch body.Kind {
		case "occupied":
			b, _ := rooms.BuildingFor("old")
			info, serr := board.RoomStatus(c.Request.Context(), b, room)
			if serr != nil {
				respondErr(c, serr)
				return
			}
			var snapshot rooms.Assignment
			if info.Assignment != nil {
				snapshot = *info.Assignment
			}
			key, err = inbox.RequestOccupied(c.Request.Context(), room, snapshot)
		case "vacant":
			key, err = inbox.RequestVacant(c.Request.Context(), room, body.Request)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be occupied or vacant"})
			return
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"key": key})
	})

	authGroup.GET("/requests", func(c *gin.Context) {
		claims, _ := auth.ClaimsFrom(c)
		if c.Query("all") == "1" {
			list, err := inbox.ListAll(c.Request.Context())
			if err != nil {
				respondErr(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"requests": list})
			return
		}
		list, err := inbox.ListFor(c.Request.Context(), claims.Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"requests": list})
	})

	decide := func(verdict string) gin.HandlerFunc {
		return func(c *gin.Context) {
			req, err := inbox.Decide(c.Request.Context(), c.Param("id"), verdict)
			if errors.Is(err, requests.ErrAlreadyDecided) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "request": req})
				return
			}
			if err != nil {
				respondErr(c, err)
				return
			}
			metrics.RequestDecisions.WithLabelValues(verdict).Inc()
			c.JSON(http.StatusOK, gin.H{"request": req})
		}
	}
	authGroup.POST("/requests/:id/accept", decide(requests.StatusAccepted))
	authGroup.POST("/requests/:id/reject", decide(requests.StatusRejected))

	authGroup.GET("/logs", func(c *gin.Context) {
		list, err := cards.Logs(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": list})
	})

	authGroup.GET("/events", func(c *gin.Context) {
		limit, offset := 50, 0
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		if v := c.Query("offset"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				offset = parsed
			}
		}
		events, err := cards.History(c.Request.Context(), c.Query("uid"), c.Query("building"), c.Query("room"), limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	})

	// Live view: an SSE stream of whole-subtree snapshots, the push contract
	// the screens were written against. The subscription dies with the
	// request; updates after the client leaves go nowhere safely.
	authGroup.GET("/watch/:top", func(c *gin.Context) {
		top := c.Param("top")
		if !watchable(top) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown subtree"})
			return
		}
		if initial, err := tree.List(c.Request.Context(), top); err == nil {
			c.SSEvent("snapshot", treestore.Snapshot{Prefix: top, Items: initial})
			c.Writer.Flush()
		}
		snaps, cancel := tree.Watch(c.Request.Context(), top)
		defer cancel()
		c.Stream(func(w io.Writer) bool {
			snap, ok := <-snaps
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// sessionClient namespaces the session cache the way a device scoped its
// local storage: one slot per authenticated identity.
func sessionClient(role, id string) string {
	return role + ":" + id
}

var watchableTops = map[string]bool{
	"Rooms_Information":    true,
	"NB_Rooms_Information": true,
	"RFID_Cards":           true,
	"Room_Requests":        true,
	"Requesting_Room":      true,
	"Requesting_Classroom": true,
}

func watchable(top string) bool { return watchableTops[top] }

// respondErr maps domain failures onto the dialog taxonomy: validation and
// credential problems get specific statuses, anything unexpected is logged
// and surfaced as a generic try-again.
func respondErr(c *gin.Context, err error) {
	var vErr *validate.ValidationError
	var cooldown verify.ErrCooldown
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "fields": vErr.Fields})
	case errors.Is(err, account.ErrWeakPassword),
		errors.Is(err, verify.ErrMismatch),
		errors.Is(err, verify.ErrNoCode),
		errors.Is(err, requests.ErrBadVerdict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrBadCredential):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrNotFound),
		errors.Is(err, requests.ErrNotFound),
		errors.Is(err, treestore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, account.ErrIDExists),
		errors.Is(err, account.ErrEmailExists),
		errors.Is(err, requests.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &cooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": cooldown.Error(), "retry_after": int(cooldown.Remaining.Seconds())})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "something went wrong, please try again later"})
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Reader-Key")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
