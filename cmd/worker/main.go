package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/soundrift/soundrift/internal/config"
	"github.com/soundrift/soundrift/internal/db"
	"github.com/soundrift/soundrift/internal/logger"
	"github.com/soundrift/soundrift/internal/sched"
	"github.com/soundrift/soundrift/internal/store/rabbitmq"
	"github.com/soundrift/soundrift/internal/track"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()
	log := logger.New()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	repo := track.NewRepo(gdb)
	svc := track.NewService(repo, nil, sched.NewReal(), cfg.DistributionDelay)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	if err := rabbitmq.DeclareJobTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatal().Err(err).Msg("queue declare")
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.JobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Error().Int("worker", workerID).Err(err).Msg("bad message")
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, svc, m.JobID, cfg.DistributionDelay); err != nil {
					// A shutdown mid-delay is not a bad job; put it back
					// for the next worker instead of dead-lettering it.
					requeue := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
					log.Error().
						Int("worker", workerID).
						Str("job", m.JobID).
						Str("track", m.TrackID).
						Bool("requeue", requeue).
						Dur("cost", time.Since(start)).
						Err(err).
						Msg("job failed")
					_ = d.Nack(false, requeue)
					continue
				}

				log.Info().
					Int("worker", workerID).
					Str("job", m.JobID).
					Str("track", m.TrackID).
					Dur("cost", time.Since(start)).
					Msg("job done")

				if err := d.Ack(false); err != nil {
					log.Error().Int("worker", workerID).Str("job", m.JobID).Err(err).Msg("ack failed")
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleJob waits out the distribution window, then drives the job to a
// terminal state. The finalize step inside RunJob is conditional, so a
// track deleted or rejected while we slept stays that way.
func handleJob(ctx context.Context, svc *track.Service, jobID string, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	return svc.RunJob(ctx, jobID)
}
