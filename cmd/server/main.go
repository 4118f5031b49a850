package main

import (
	"context"
	"time"

	"github.com/soundrift/soundrift/internal/config"
	"github.com/soundrift/soundrift/internal/db"
	"github.com/soundrift/soundrift/internal/httpapi"
	"github.com/soundrift/soundrift/internal/logger"
	"github.com/soundrift/soundrift/internal/models"
	"github.com/soundrift/soundrift/internal/sched"
	"github.com/soundrift/soundrift/internal/store/rabbitmq"
	"github.com/soundrift/soundrift/internal/store/redisstore"
	"github.com/soundrift/soundrift/internal/support"
	"github.com/soundrift/soundrift/internal/track"
)

const defaultAgentCapacity = 3

func main() {
	cfg := config.Load()
	log := logger.New()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Seed(gdb); err != nil {
		log.Fatal().Err(err).Msg("db seed")
	}

	// distribution path: queue to the worker when rabbit is reachable,
	// otherwise finalize in-process after the configured delay
	var publisher track.JobPublisher
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unavailable, using in-process distribution")
	} else {
		publisher = pub
		defer pub.Close()
	}

	trackSvc := track.NewService(track.NewRepo(gdb), publisher, sched.NewReal(), cfg.DistributionDelay)

	mgr := support.NewManager(sched.NewReal(), cfg.BotDelayMin, cfg.BotDelayMax)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rds.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, agent presence mirror disabled")
	} else {
		mgr.SetPresence(rds)
		defer rds.Close()
	}
	cancel()

	// the agent pool is every support-role account
	var supportUsers []models.User
	if err := gdb.Where("role = ?", models.RoleSupport).Find(&supportUsers).Error; err != nil {
		log.Fatal().Err(err).Msg("load support agents")
	}
	for _, u := range supportUsers {
		mgr.RegisterAgent(u.ID, u.Name, u.Email, defaultAgentCapacity)
	}
	log.Info().Int("agents", len(supportUsers)).Msg("agent pool seeded")

	r := httpapi.NewRouter(gdb, cfg, log, trackSvc, mgr)

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
