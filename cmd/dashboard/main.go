package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rkarimi/tutordesk/internal/config"
	gateway "github.com/rkarimi/tutordesk/internal/gateways"
	"github.com/rkarimi/tutordesk/internal/handlers"
	"github.com/rkarimi/tutordesk/internal/report"
	"github.com/rkarimi/tutordesk/internal/repository"
	"github.com/rkarimi/tutordesk/internal/scanfeed"
	"github.com/rkarimi/tutordesk/internal/services"
	"github.com/rkarimi/tutordesk/pkg/clock"
	xhttp "github.com/rkarimi/tutordesk/pkg/http"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/rkarimi/tutordesk/pkg/pg"
	"github.com/rkarimi/tutordesk/pkg/prom"
	"github.com/rkarimi/tutordesk/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	feed, err := scanfeed.New(redisAdap, scanfeed.Config{
		Stream:        config.Get().ScanStreamName,
		ConsumerGroup: config.Get().ScanConsumerGroup,
		ConsumerName:  config.Get().ScanConsumerName,
		PollInterval:  config.Get().ScanPollInterval,
		BatchSize:     config.Get().ScanBatchSize,
		MaxLen:        config.Get().ScanMaxLen,
		ClaimIdle:     config.Get().ScanClaimIdle,
	})
	if err != nil {
		logger.Error("failed creating scan feed", "error", err)
		return
	}

	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	clk := clock.New()
	tracker := report.NewTracker(redisAdap)
	textgen := gateway.NewTextGenClient(gateway.TextGenConfig{
		URL:        config.Get().TextGenURL,
		Timeout:    config.Get().TextGenTimeout,
		MaxRetries: config.Get().TextGenMaxRetries,
		RetryDelay: config.Get().TextGenRetryDelay,
	})
	delivery := gateway.NewDeliveryClient(gateway.DeliveryConfig{
		URL:     config.Get().DeliveryURL,
		Timeout: config.Get().DeliveryTimeout,
	})
	speech := gateway.NewSpeechClient(gateway.SpeechConfig{
		URL:     config.Get().SpeechURL,
		Timeout: config.Get().SpeechTimeout,
	})
	generator := report.NewGenerator(activityRepo, textgen, clk, config.Get().ReportIssuerName)

	// services
	scanService := services.NewScanService(studentRepo, speech, clk,
		config.Get().ScanDebounceWindow, config.Get().ScanFeedbackWindow)
	reportService := services.NewReportService(studentRepo, generator, delivery, tracker, clk)
	rosterService := services.NewRosterService(studentRepo, activityRepo)
	healthService := services.NewHealthService()
	healthService.Register("redis", services.PingerFunc(func(ctx context.Context) error {
		return redisAdap.Client().Ping(ctx).Err()
	}))

	// v1 handlers
	scanHandler := handlers.NewScanHandler(scanService, feed)
	reportHandler := handlers.NewReportHandler(reportService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterScanRoutes(g, scanHandler)
	handlers.RegisterReportRoutes(g, reportHandler)
	handlers.RegisterRosterRoutes(g, rosterHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
