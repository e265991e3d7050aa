package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arborist-study-api/db"
	"arborist-study-api/utils"

	"github.com/hibiken/asynq"
)

const (
	TypeProgressRebuild = "progress:rebuild"
)

// JobManager runs the repair queue. User progress is a derived projection:
// when the synchronous update after an exam submission fails, a rebuild task
// replays the result history instead of losing the update.
type JobManager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

type ProgressRebuildPayload struct {
	UserID int `json:"user_id"`
}

func NewJobManager(redisURL string) *JobManager {
	addr := strings.TrimPrefix(redisURL, "redis://")
	redisOpt := asynq.RedisClientOpt{
		Addr: addr,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			utils.LogError("Job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: &AsynqLogger{},
	})

	mux := asynq.NewServeMux()

	return &JobManager{
		client: client,
		server: server,
		mux:    mux,
	}
}

func (jm *JobManager) RegisterHandlers(database *db.DB) {
	jm.mux.HandleFunc(TypeProgressRebuild, jm.handleProgressRebuild(database))
}

func (jm *JobManager) Start() error {
	utils.LogStartup("Starting job queue worker...")
	return jm.server.Run(jm.mux)
}

func (jm *JobManager) Stop() {
	utils.LogShutdown("Stopping job queue...")
	jm.server.Stop()
	jm.server.Shutdown()
	jm.client.Close()
}

// EnqueueProgressRebuild schedules a full progress rebuild for one user
func (jm *JobManager) EnqueueProgressRebuild(userID int) error {
	payload, err := json.Marshal(ProgressRebuildPayload{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal rebuild payload: %w", err)
	}

	task := asynq.NewTask(TypeProgressRebuild, payload)

	info, err := jm.client.Enqueue(task,
		asynq.Queue("default"),
		asynq.MaxRetry(5),
		asynq.Timeout(60*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue rebuild task: %w", err)
	}

	utils.LogInfo("Queued progress rebuild: ID=%s user=%d", info.ID, userID)
	return nil
}

func (jm *JobManager) handleProgressRebuild(database *db.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload ProgressRebuildPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal rebuild payload: %w", err)
		}

		utils.LogInfo("Processing progress rebuild for user %d", payload.UserID)

		if err := database.RebuildUserProgress(payload.UserID); err != nil {
			return fmt.Errorf("failed to rebuild progress for user %d: %w", payload.UserID, err)
		}

		return nil
	}
}

// AsynqLogger routes asynq's internal logging through the tagged log helpers
type AsynqLogger struct{}

func (l *AsynqLogger) Debug(args ...interface{}) {
	utils.LogDebug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	utils.LogInfo(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	utils.LogError(fmt.Sprint(args...))
}
