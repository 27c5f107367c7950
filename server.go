package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/genai"
	"bitbucket.org/mmdatafocus/suggestions_backend/middlewares"
	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"bitbucket.org/mmdatafocus/suggestions_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

const sessionTokenTTL = 24 * time.Hour

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// respondError maps the error taxonomy onto HTTP statuses. Invalid lifecycle
// moves are a conflict, malformed input is a bad request, missing records are
// a 404; anything else is a 500 with the message withheld.
func respondError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, utils.ErrorInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorMalformedIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	default:
		config.LogError(config.GetLogger(), "server.go", "respondError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseStatusQuery(c *gin.Context) (*models.SuggestionStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status, err := models.ParseSuggestionStatus(raw)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func parseLimitQuery(c *gin.Context) *int {
	raw := c.Query("limit")
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return &n
	}
	return nil
}

func parseYearQuery(c *gin.Context) int {
	if raw := c.Query("year"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return time.Now().UTC().Year()
}

func parseIdParam(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

type tokenRequest struct {
	ClientId string `json:"client_id" binding:"required"`
	ApiKey   string `json:"api_key" binding:"required"`
}

// tokenHandler exchanges a client id + API key for a JWT and a Redis-backed
// session token.
func tokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}

		client, err := models.AuthenticateApiKey(c.Request.Context(), req.ApiKey)
		if err != nil || client.ID != req.ClientId {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		jwtToken, err := utils.JwtGenerate(client.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		sessionToken := uuid.NewString()
		if err := config.SetRedisValue("Token:"+sessionToken, client.ID, sessionTokenTTL); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"jwt": jwtToken, "token": sessionToken})
	}
}

func listPromotionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := parseStatusQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		results, err := models.GetPromotionSuggestions(c.Request.Context(), status, parseLimitQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"promotions": results})
	}
}

func listOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := parseStatusQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		results, err := models.GetOrderSuggestions(c.Request.Context(), status, parseLimitQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": results})
	}
}

func getPromotionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.GetPromotionSuggestion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.GetOrderSuggestion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func updatePromotionStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		status, err := models.ParseSuggestionStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.UpdateStatusPromotionSuggestion(c.Request.Context(), id, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func updateOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}
		status, err := models.ParseSuggestionStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.UpdateStatusOrderSuggestion(c.Request.Context(), id, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func recordOutcomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var req models.NewPromotionOutcome
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, err)
			return
		}

		outcome, err := models.RecordPromotionOutcome(c.Request.Context(), id, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, outcome)
	}
}

func deletePromotionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.DeletePromotionSuggestion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func deleteOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseIdParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := models.DeleteOrderSuggestion(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func runPromotionAgentHandler(agent *workflow.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientId, _ := utils.GetClientIdFromContext(c.Request.Context())

		result, err := agent.RunPromotionAgent(c.Request.Context(), clientId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func runReplenishmentAgentHandler(agent *workflow.Agent) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientId, _ := utils.GetClientIdFromContext(c.Request.Context())

		result, err := agent.RunReplenishmentAgent(c.Request.Context(), clientId)
		if err != nil {
			respondError(c, err)
			return
		}
		if result == nil {
			c.JSON(http.StatusOK, gin.H{"message": "no products below reorder point"})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

func promotionImpactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := models.GetPromotionImpact(c.Request.Context(), parseYearQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func orderImpactHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := models.GetOrderImpact(c.Request.Context(), parseYearQuery(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func impactExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		year := parseYearQuery(c)
		f, err := models.ExportImpactExcel(c.Request.Context(), year)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=impact-%d.xlsx", year))
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "server.go", "impactExportHandler", "write xlsx", nil, err)
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-API-Key")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.ApiKeyMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	gateway := signals.NewGateway(signals.NewHTTPSource())
	var completer genai.Completer
	if config.SynthesizerEnabled() {
		var err error
		completer, err = genai.NewAnthropicCompleter()
		if err != nil {
			logger.WithFields(logrus.Fields{"field": "genai"}).Warn("synthesizer unavailable: " + err.Error())
		}
	}
	agent := workflow.NewAgent(gateway, completer)

	r.POST("/api/v1/auth/token", tokenHandler())

	api := r.Group("/api/v1", middlewares.RequireClient())
	api.GET("/suggestions/promotions", listPromotionsHandler())
	api.GET("/suggestions/promotions/:id", getPromotionHandler())
	api.PUT("/suggestions/promotions/:id/status", updatePromotionStatusHandler())
	api.DELETE("/suggestions/promotions/:id", deletePromotionHandler())
	api.POST("/suggestions/promotions/:id/outcome", recordOutcomeHandler())
	api.GET("/suggestions/orders", listOrdersHandler())
	api.GET("/suggestions/orders/:id", getOrderHandler())
	api.PUT("/suggestions/orders/:id/status", updateOrderStatusHandler())
	api.DELETE("/suggestions/orders/:id", deleteOrderHandler())
	api.POST("/agents/promotion/run", runPromotionAgentHandler(agent))
	api.POST("/agents/replenishment/run", runReplenishmentAgentHandler(agent))
	api.GET("/metrics/impact/promotions", promotionImpactHandler())
	api.GET("/metrics/impact/suggested-orders", orderImpactHandler())
	api.GET("/metrics/impact/export", impactExportHandler())

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Nightly agent sweep.
	scheduler := workflow.NewScheduler(agent)
	if err := scheduler.Start(); err != nil {
		logger.WithFields(logrus.Fields{"field": "scheduler"}).Error("scheduler failed to start: " + err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	scheduler.Stop()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP()

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
