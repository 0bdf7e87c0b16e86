package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/money"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
)

// TypeSpendRefresh recomputes a customer's cached lifetime spend.
const TypeSpendRefresh = "spend:refresh"

// DefaultQueue is the asynq queue used for wholesale jobs.
const DefaultQueue = "wholesale"

// SpendRefreshPayload is the task body of TypeSpendRefresh.
type SpendRefreshPayload struct {
	CustomerID int64 `json:"customer_id"`
}

// NewSpendRefreshTask builds the refresh task for one customer.
func NewSpendRefreshTask(customerID int64) (*asynq.Task, error) {
	if customerID <= 0 {
		return nil, errors.New("jobs: customer id is required")
	}
	body, err := json.Marshal(SpendRefreshPayload{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSpendRefresh, body), nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler enqueues wholesale background jobs.
type Scheduler struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
	// Unique collapses refreshes for the same customer within this window.
	Unique time.Duration
	// Delay postpones the refresh so Shopify has indexed the new order.
	Delay time.Duration
}

// EnqueueSpendRefresh schedules a lifetime spend refresh. A refresh already
// pending for the customer is not an error.
func (s Scheduler) EnqueueSpendRefresh(ctx context.Context, customerID int64) error {
	if s.Client == nil {
		return nil
	}
	task, err := NewSpendRefreshTask(customerID)
	if err != nil {
		return err
	}
	queue := s.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	opts := []asynq.Option{
		asynq.Queue(queue),
		asynq.TaskID(TypeSpendRefresh + ":" + strconv.FormatInt(customerID, 10)),
	}
	if s.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(s.MaxRetry))
	}
	if s.Unique > 0 {
		opts = append(opts, asynq.Unique(s.Unique))
	}
	if s.Delay > 0 {
		opts = append(opts, asynq.ProcessIn(s.Delay))
	}
	_, err = s.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// Refresher recomputes and stores lifetime spend.
type Refresher interface {
	Refresh(ctx context.Context, customerID int64) (money.Minor, error)
}

// SpendRefreshHandler processes TypeSpendRefresh tasks.
type SpendRefreshHandler struct {
	Spend  Refresher
	Logger zerolog.Logger
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h SpendRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p SpendRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.CustomerID <= 0 {
		obs.ObserveSpendRefresh(errors.New("bad payload"))
		return fmt.Errorf("jobs: bad %s payload: %w", TypeSpendRefresh, asynq.SkipRetry)
	}
	amount, err := h.Spend.Refresh(ctx, p.CustomerID)
	obs.ObserveSpendRefresh(err)
	if err != nil {
		h.Logger.Warn().Err(err).Int64("customer_id", p.CustomerID).Msg("spend_refresh_failed")
		return err
	}
	h.Logger.Info().Int64("customer_id", p.CustomerID).Int64("lifetime_spend_cents", int64(amount)).Msg("spend_refreshed")
	return nil
}

// NewServeMux routes wholesale task types to their handlers.
func NewServeMux(spend SpendRefreshHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeSpendRefresh, spend)
	return mux
}
