package workflow

import (
	"context"
	"errors"
	"os"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultAgentCron = "0 3 * * *"

// Scheduler runs both agents for every active client on a cron schedule.
// A failing client never aborts the sweep; failures are logged per client.
type Scheduler struct {
	cron  *cron.Cron
	agent *Agent
}

func NewScheduler(agent *Agent) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		agent: agent,
	}
}

// Start registers the nightly sweep and starts the cron loop. The schedule
// comes from AGENT_CRON (standard 5-field spec, default 03:00 daily).
func (s *Scheduler) Start() error {
	schedule := os.Getenv("AGENT_CRON")
	if schedule == "" {
		schedule = defaultAgentCron
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.RunSweep(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	config.GetLogger().WithFields(logrus.Fields{
		"module":   "workflow",
		"schedule": schedule,
	}).Info("agent scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	config.GetLogger().WithField("module", "workflow").Info("agent scheduler stopped")
}

// RunSweep runs both agents for each active client, sequentially per client.
func (s *Scheduler) RunSweep(ctx context.Context) {
	logger := config.GetLogger()

	clients, err := models.GetActiveClients(ctx)
	if err != nil {
		config.LogError(logger, "workflow", "RunSweep", "list active clients", nil, err)
		return
	}

	for _, client := range clients {
		if _, err := s.agent.RunPromotionAgent(ctx, client.ID); err != nil && !errors.Is(err, ErrRunInProgress) {
			config.LogError(logger, "workflow", "RunSweep", "promotion agent", client.ID, err)
		}
		if _, err := s.agent.RunReplenishmentAgent(ctx, client.ID); err != nil && !errors.Is(err, ErrRunInProgress) {
			config.LogError(logger, "workflow", "RunSweep", "replenishment agent", client.ID, err)
		}
	}

	logger.WithFields(logrus.Fields{
		"module":  "workflow",
		"clients": len(clients),
	}).Info("agent sweep complete")
}
