package importer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"door-catalog/internal/cache"
	"door-catalog/internal/models"
)

// JobTTL es el tiempo que se conserva el estado de una importación
const JobTTL = time.Hour

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job es el estado visible de una importación en segundo plano
type Job struct {
	ID         string               `json:"id"`
	Status     JobStatus            `json:"status"`
	Processed  int                  `json:"processed"`
	Total      int                  `json:"total"`
	Message    string               `json:"message"`
	Result     *models.ImportResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// Runner ejecuta un lote; lo implementa Pipeline
type Runner interface {
	Run(ctx context.Context, rows []models.ImportRow, images []ImageFile, progress func(Step)) (models.ImportResult, error)
}

// Tracker lanza importaciones en segundo plano y guarda su avance en el caché
type Tracker struct {
	runner   Runner
	jobs     *cache.Cache
	onFinish func(Job)
	wg       sync.WaitGroup
}

func NewTracker(runner Runner, jobs *cache.Cache) *Tracker {
	return &Tracker{runner: runner, jobs: jobs}
}

// OnFinish registra una función que se llama al terminar cada trabajo
func (t *Tracker) OnFinish(fn func(Job)) {
	t.onFinish = fn
}

func jobKey(id string) string {
	return "import:job:" + id
}

// Start registra el trabajo y lo ejecuta sin depender de la cancelación de ctx
func (t *Tracker) Start(ctx context.Context, rows []models.ImportRow, images []ImageFile) (Job, error) {
	if len(rows) == 0 {
		return Job{}, ErrNoRows
	}

	job := Job{
		ID:        uuid.NewString(),
		Status:    JobRunning,
		Total:     len(rows),
		Message:   "queued",
		StartedAt: time.Now(),
	}
	t.save(job)

	runCtx := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.run(runCtx, job, rows, images)
	}()

	return job, nil
}

func (t *Tracker) run(ctx context.Context, job Job, rows []models.ImportRow, images []ImageFile) {
	result, err := t.runner.Run(ctx, rows, images, func(step Step) {
		job.Processed = step.Index
		job.Message = step.String()
		t.save(job)
	})

	finished := time.Now()
	job.FinishedAt = &finished
	if err != nil {
		zap.L().Error("Import job failed", zap.String("job", job.ID), zap.Error(err))
		job.Status = JobFailed
		job.Error = err.Error()
		job.Message = "import failed"
	} else {
		job.Status = JobCompleted
		job.Result = &result
		job.Message = "import completed"
	}
	t.save(job)

	if t.onFinish != nil {
		t.onFinish(job)
	}
}

func (t *Tracker) save(job Job) {
	t.jobs.Set(jobKey(job.ID), job, JobTTL)
}

// Get devuelve el estado de un trabajo si todavía se conserva
func (t *Tracker) Get(id string) (Job, bool) {
	v, ok := t.jobs.Get(jobKey(id))
	if !ok {
		return Job{}, false
	}
	job, ok := v.(Job)
	return job, ok
}

// Wait espera a que terminen los trabajos en curso
func (t *Tracker) Wait() {
	t.wg.Wait()
}
