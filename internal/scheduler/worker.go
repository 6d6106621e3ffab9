package scheduler

import (
	"context"
	"time"

	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/redisx"

	"github.com/hibiken/asynq"
)

const workerShutdownTimeout = 15 * time.Second

// Worker consumes queued tasks. The capacity reset is its only task type.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reset *CapacityResetHandler, log *logger.Logger) (*Worker, error) {
	opt, err := redisx.AsynqOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queueName(cfg): 1},
		ShutdownTimeout: workerShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			log.Error("scheduled task failed", "task", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(TaskCapacityReset, reset)

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run blocks until ctx is done or the server fails to start.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return
	}
	w.log.Info("scheduler worker started", "task", TaskCapacityReset)

	<-ctx.Done()
	w.server.Shutdown()
}
