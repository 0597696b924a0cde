package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"slidegen/internal/adapter/repo"
	"slidegen/internal/domain"
	"slidegen/internal/infra"
	"slidegen/internal/providers/llm"
	"slidegen/internal/queue"
	"slidegen/internal/slides"
)

const jobPollInterval = 2 * time.Second

type jobWorker struct {
	ctx     context.Context
	jobs    domain.JobRepository
	slides  *slides.Service
	logger  infra.Logger
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	client, err := llm.FromConfig(cfg, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: llm client setup failed")
	}

	q := queue.New(queue.Options{
		MaxConcurrent: cfg.QueueMaxConcurrent,
		MaxRetries:    cfg.QueueMaxRetries,
		CacheTTL:      cfg.QueueCacheTTL,
		Logger:        logger,
	})
	defer q.Stop()

	svc, err := slides.NewService(slides.Options{
		Queue:  q,
		Client: client,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: service setup failed")
	}

	worker := &jobWorker{
		ctx:     ctx,
		jobs:    repo.NewJobRepository(runner),
		slides:  svc,
		logger:  logger,
		timeout: cfg.GenerateTimeout,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.jobs.ClaimNext(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				w.sleep(jobPollInterval)
				continue
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error().Err(err).Msg("worker: claim job failed")
			w.sleep(jobPollInterval)
			continue
		}

		w.handleJob(job)
	}
}

func (w *jobWorker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

func (w *jobWorker) handleJob(job *domain.Job) {
	w.logger.Info().Str("job_id", job.ID).Msg("worker: picked job")

	slide, err := w.process(job)
	if err != nil {
		msg := err.Error()
		if finishErr := w.jobs.Finish(w.ctx, job.ID, domain.JobStatusFailed, &msg, nil); finishErr != nil {
			w.logger.Error().Err(finishErr).Str("job_id", job.ID).Msg("worker: finish job failed")
		}
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		return
	}

	slideJSON, err := json.Marshal(slide)
	if err != nil {
		msg := "encode slide: " + err.Error()
		_ = w.jobs.Finish(w.ctx, job.ID, domain.JobStatusFailed, &msg, nil)
		return
	}
	if err := w.jobs.Finish(w.ctx, job.ID, domain.JobStatusSucceeded, nil, slideJSON); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: finish job failed")
		return
	}
	w.logger.Info().Str("job_id", job.ID).Bool("degraded", slide.Degraded).Msg("worker: job succeeded")
}

func (w *jobWorker) process(job *domain.Job) (*domain.Slide, error) {
	var task domain.SlideTask
	if err := json.Unmarshal(job.TaskJSON, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	return w.slides.Generate(ctx, task)
}
