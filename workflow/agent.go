package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/suggestions_backend/config"
	"bitbucket.org/mmdatafocus/suggestions_backend/genai"
	"bitbucket.org/mmdatafocus/suggestions_backend/models"
	"bitbucket.org/mmdatafocus/suggestions_backend/signals"
	"bitbucket.org/mmdatafocus/suggestions_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const agentLockTTL = 2 * time.Minute

// ErrRunInProgress is returned when the same agent task is already running for
// the client on another instance.
var ErrRunInProgress = fmt.Errorf("agent run already in progress")

// Agent ties together the signal gateway, the generation step and the parser.
// Each run is stateless; concurrent clients are independent.
type Agent struct {
	Gateway   *signals.Gateway
	Completer genai.Completer
}

func NewAgent(gateway *signals.Gateway, completer genai.Completer) *Agent {
	return &Agent{Gateway: gateway, Completer: completer}
}

type signalSnapshot struct {
	products []signals.ProductSignal
	stock    []signals.StockSignal
	history  []signals.OrderHistorySignal
}

// RunPromotionAgent generates and persists one Draft promotion suggestion for
// the client.
func (a *Agent) RunPromotionAgent(ctx context.Context, clientId string) (*models.PromotionSuggestion, error) {
	if err := utils.ValidateIdentity(clientId); err != nil {
		return nil, err
	}

	lock, err := a.obtainRunLock(ctx, "promotion", clientId)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	snapshot := a.fetchSignals(ctx, clientId)
	prompt := BuildPromotionPrompt(snapshot.products, snapshot.stock, snapshot.history)
	rawText := a.synthesize(ctx, clientId, "promotion", prompt)

	suggestion := ParsePromotionSuggestion(clientId, rawText, snapshot.products)

	created, err := models.CreatePromotionSuggestion(utils.SetClientIdInContext(ctx, clientId), suggestion)
	if err != nil {
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"module":        "workflow",
		"task":          "promotion",
		"client_id":     clientId,
		"suggestion_id": created.ID,
	}).Info("promotion agent run complete")
	return created, nil
}

// RunReplenishmentAgent generates and persists one Draft order suggestion for
// the client. When no product is below its reorder point there is nothing to
// order and no record is created.
func (a *Agent) RunReplenishmentAgent(ctx context.Context, clientId string) (*models.OrderSuggestion, error) {
	if err := utils.ValidateIdentity(clientId); err != nil {
		return nil, err
	}

	lock, err := a.obtainRunLock(ctx, "replenishment", clientId)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	snapshot := a.fetchSignals(ctx, clientId)
	prompt := BuildReplenishmentPrompt(snapshot.products, snapshot.stock, snapshot.history)
	rawText := a.synthesize(ctx, clientId, "replenishment", prompt)

	suggestion := ParseOrderSuggestion(clientId, rawText, snapshot.products, snapshot.stock)
	if len(suggestion.Items) == 0 {
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "workflow",
			"task":      "replenishment",
			"client_id": clientId,
		}).Info("no products below reorder point; skipping order suggestion")
		return nil, nil
	}

	created, err := models.CreateOrderSuggestion(utils.SetClientIdInContext(ctx, clientId), suggestion)
	if err != nil {
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"module":        "workflow",
		"task":          "replenishment",
		"client_id":     clientId,
		"suggestion_id": created.ID,
		"total_cost":    created.TotalEstimatedCost.String(),
	}).Info("replenishment agent run complete")
	return created, nil
}

// obtainRunLock takes the per-(task, client) lock so at most one record comes
// out of overlapping runs. A missing locker (Redis down) degrades to running
// unlocked rather than refusing the run.
func (a *Agent) obtainRunLock(ctx context.Context, task string, clientId string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "workflow",
			"task":      task,
			"client_id": clientId,
		}).Warn("redis lock not ready; proceeding without run lock")
		return nil, nil
	}

	lock, err := locker.Obtain(ctx, fmt.Sprintf("agent:%s:%s", task, clientId), agentLockTTL, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// fetchSignals loads the three datasets concurrently. The gateway never
// errors, so the group exists purely for the fan-out.
func (a *Agent) fetchSignals(ctx context.Context, clientId string) signalSnapshot {
	var snapshot signalSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot.products = a.Gateway.FetchProducts(gctx, clientId)
		return nil
	})
	g.Go(func() error {
		snapshot.stock = a.Gateway.FetchStock(gctx, clientId)
		return nil
	})
	g.Go(func() error {
		snapshot.history = a.Gateway.FetchOrderHistory(gctx, clientId)
		return nil
	})
	_ = g.Wait()

	return snapshot
}

// synthesize runs the generation step under its timeout. Any failure degrades
// to empty text; the parser produces deterministic defaults from it.
func (a *Agent) synthesize(ctx context.Context, clientId string, task string, prompt string) string {
	if a.Completer == nil || !config.SynthesizerEnabled() {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, config.SynthesizerTimeout())
	defer cancel()

	text, err := a.Completer.Complete(ctx, prompt)
	if err != nil {
		config.GetLogger().WithFields(logrus.Fields{
			"module":    "workflow",
			"task":      task,
			"client_id": clientId,
			"error":     err.Error(),
		}).Warn("generation step failed; continuing with defaults")
		return ""
	}
	return text
}
