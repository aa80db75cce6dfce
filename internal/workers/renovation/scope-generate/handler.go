package scopegenerate

import (
	"context"
	"fmt"
	"time"

	"renovation-scope/internal/common/camunda"
	"renovation-scope/internal/common/config"
	"renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/common/metrics"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/pipeline"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "renovation.scope.generate"

type Handler struct {
	config     *Config
	logger     logger.Logger
	camunda    *camunda.Client
	dispatcher Dispatcher
	errors     *errors.ErrorHandler
	jobWorker  worker.JobWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Dispatcher   Dispatcher
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", config.ScopeWorkerName, err)
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:     workerConfig,
		logger:     loggerInstance,
		camunda:    opts.Camunda,
		dispatcher: opts.Dispatcher,
		errors:     errors.NewErrorHandler(loggerInstance),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing scope job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	req, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	res, err := h.Execute(ctx, req)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, res)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute runs the pipeline for an already decoded request.
func (h *Handler) Execute(ctx context.Context, req models.ScopeRequest) (*models.ScopeResult, error) {
	return h.dispatcher.Dispatch(ctx, req)
}

func (h *Handler) parseInput(job entities.Job) (models.ScopeRequest, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return models.ScopeRequest{}, errors.NewValidationError(fmt.Sprintf("Failed to parse job variables: %v", err))
	}
	return pipeline.DecodeRequest(variables)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, res *models.ScopeResult) {
	variables, err := OutputVariables(res)
	if err != nil {
		h.failJob(ctx, client, job, errors.NewInternalError(err))
		return
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	err = h.send(ctx, "complete-job", func(ctx context.Context) error {
		_, err := request.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Successfully completed scope job", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"lineItems": len(res.LineItems),
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

// send retries transient gateway failures when a managed client is present.
func (h *Handler) send(ctx context.Context, operation string, fn func(context.Context) error) error {
	if h.camunda == nil {
		return fn(ctx)
	}
	return h.camunda.ExecuteWithRetry(ctx, operation, fn)
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is required to register %s", TaskType)
	}

	h.jobWorker = camunda.OpenWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h.Handle, h.logger)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", nil)
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
