package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rkarimi/tutordesk/internal/config"
	gateway "github.com/rkarimi/tutordesk/internal/gateways"
	"github.com/rkarimi/tutordesk/internal/repository"
	"github.com/rkarimi/tutordesk/internal/scanfeed"
	"github.com/rkarimi/tutordesk/internal/services"
	"github.com/rkarimi/tutordesk/pkg/clock"
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

	speech := gateway.NewSpeechClient(gateway.SpeechConfig{
		URL:     config.Get().SpeechURL,
		Timeout: config.Get().SpeechTimeout,
	})

	studentRepo := repository.NewStudentRepository(db)
	scanService := services.NewScanService(studentRepo, speech, clock.New(),
		config.Get().ScanDebounceWindow, config.Get().ScanFeedbackWindow)

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
		prom.ListenAndServer(":9101", "/metrics")
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	if err := feed.Consume(scanService.HandleEvent); err != nil {
		logger.Error("failed to start scan feed consumer", "error", err)
		return
	}

	select {
	case <-c:
		if err := feed.Stop(10 * time.Second); err != nil {
			logger.Error("failed to stop scan feed cleanly", "error", err)
		}
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
