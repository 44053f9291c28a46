package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GenerateRequest mirrors the payload the dashboard sends to the
// text-generation service.
type GenerateRequest struct {
	StudentName         string  `json:"student_name" binding:"required"`
	TaskCount           int     `json:"task_count"`
	AverageScore        float64 `json:"average_score"`
	Paid                bool    `json:"paid"`
	IssuerName          string  `json:"issuer_name"`
	PeriodLabel         string  `json:"period_label"`
	AttendanceIndicator int     `json:"attendance_indicator"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

type MessageRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type SpeechRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// MockBackends simulates the three external services the dashboard talks
// to: the AI text generator, the messaging channel and the speech bridge.
type MockBackends struct {
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	instanceID  string
	rng         *rand.Rand
}

func NewMockBackends(successRate float64, minDelay, maxDelay time.Duration) *MockBackends {
	return &MockBackends{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		instanceID:  "MOCK_BACKENDS_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockBackends) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockBackends) shouldSucceed() bool {
	return m.rng.Float64() < m.successRate
}

func (m *MockBackends) composeReport(req *GenerateRequest) string {
	attendance := "has been attending regularly"
	if req.AttendanceIndicator == 0 {
		attendance = "has missed recent sessions"
	}
	payment := ""
	if !req.Paid {
		payment = " Please note the tuition balance is outstanding."
	}
	return fmt.Sprintf(
		"Dear parent, over the past %s %s completed %d tasks with an average score of %.1f and %s.%s Regards, %s",
		req.PeriodLabel, req.StudentName, req.TaskCount, req.AverageScore, attendance, payment, req.IssuerName,
	)
}

type Handler struct {
	backends *MockBackends
}

func NewHandler(backends *MockBackends) *Handler {
	return &Handler{backends: backends}
}

// GenerateReport simulates the slow, fallible AI text generator.
func (h *Handler) GenerateReport(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	delay := h.backends.randomDelay()
	time.Sleep(delay)

	if !h.backends.shouldSucceed() {
		log.Warn().
			Str("student", req.StudentName).
			Dur("delay", delay).
			Msg("Simulated generation failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "generation temporarily unavailable",
		})
		return
	}

	log.Info().
		Str("student", req.StudentName).
		Str("period", req.PeriodLabel).
		Dur("delay", delay).
		Msg("Report text generated")

	c.JSON(http.StatusOK, GenerateResponse{Text: h.backends.composeReport(&req)})
}

// SendMessage simulates the parent messaging channel.
func (h *Handler) SendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	log.Info().
		Str("phone", req.Phone).
		Int("content_len", len(req.Content)).
		Msg("Message delivered")

	c.JSON(http.StatusOK, gin.H{
		"status":       "DELIVERED",
		"delivered_at": time.Now(),
		"backend_id":   h.backends.instanceID,
	})
}

// Say and PlayTone simulate the speech bridge next to the scan surface.
func (h *Handler) Say(c *gin.Context) {
	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	log.Info().Str("text", req.Text).Msg("Speaking")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) PlayTone(c *gin.Context) {
	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	log.Info().Str("kind", req.Kind).Msg("Playing tone")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"backend_id":   h.backends.instanceID,
		"timestamp":    time.Now(),
		"success_rate": h.backends.successRate,
	})
}

// UpdateConfig allows changing the simulated success rate at runtime.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		SuccessRate *float64 `json:"success_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.SuccessRate != nil {
		if *config.SuccessRate >= 0 && *config.SuccessRate <= 1.0 {
			h.backends.successRate = *config.SuccessRate
			log.Info().Float64("rate", *config.SuccessRate).Msg("Updated success rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Configuration updated",
		"success_rate": h.backends.successRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/reports/generate", handler.GenerateReport)
		v1.POST("/messages", handler.SendMessage)
		v1.POST("/speech/say", handler.Say)
		v1.POST("/speech/tone", handler.PlayTone)
		v1.GET("/health", handler.HealthCheck)
		v1.PUT("/config", handler.UpdateConfig)
	}

	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 1*time.Second)
	maxDelay := getEnvDuration("MAX_DELAY", 5*time.Second)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Backends")

	backends := NewMockBackends(successRate, minDelay, maxDelay)
	handler := NewHandler(backends)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
