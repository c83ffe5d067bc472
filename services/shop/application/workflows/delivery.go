// Package workflows holds the Temporal workflows of the shop context.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/ghshop/pkg/logger"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// DeliveryTaskQueue is polled by the worker hosting DeliveryWorkflow.
const DeliveryTaskQueue = "shop-delivery"

const errTypeOrderNotFound = "OrderNotFound"

// DeliveryInput starts one delivery.
type DeliveryInput struct {
	OrderID  uuid.UUID     `json:"order_id"`
	LeadTime time.Duration `json:"lead_time"`
}

// DeliveryWorkflow waits out the lead time on a durable timer, then marks
// the order delivered.
func DeliveryWorkflow(ctx workflow.Context, in DeliveryInput) error {
	if in.LeadTime > 0 {
		if err := workflow.Sleep(ctx, in.LeadTime); err != nil {
			return err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        10,
			NonRetryableErrorTypes: []string{errTypeOrderNotFound},
		},
	})
	var a *DeliveryActivities
	return workflow.ExecuteActivity(ctx, a.CompleteDelivery, in.OrderID).Get(ctx, nil)
}

// DeliveryCompleter is the part of the order service the activity needs.
type DeliveryCompleter interface {
	CompleteDelivery(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// DeliveryActivities holds the activity implementations.
type DeliveryActivities struct {
	Orders DeliveryCompleter
	Log    logger.Logger
}

// CompleteDelivery marks the delivery COMPLETED. A cancelled order is done:
// there is nothing left to deliver.
func (a *DeliveryActivities) CompleteDelivery(ctx context.Context, orderID uuid.UUID) error {
	_, err := a.Orders.CompleteDelivery(ctx, orderID)
	switch {
	case err == nil:
		a.Log.InfoContext(ctx, "delivery completed", "order_id", orderID)
		return nil
	case errors.Is(err, shopdomain.ErrOrderCancelled):
		a.Log.InfoContext(ctx, "delivery skipped for cancelled order", "order_id", orderID)
		return nil
	case errors.Is(err, shopdomain.ErrOrderNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeOrderNotFound, err)
	default:
		return err
	}
}

// Register adds the workflow and activities to w.
func Register(w worker.Registry, activities *DeliveryActivities) {
	w.RegisterWorkflow(DeliveryWorkflow)
	w.RegisterActivity(activities)
}

// StartDelivery starts the delivery workflow of one order. The workflow id is
// derived from the order, so a redelivered order.placed event attaches to the
// running workflow instead of starting a second one.
func StartDelivery(ctx context.Context, c client.Client, orderID uuid.UUID, leadTime time.Duration) (client.WorkflowRun, error) {
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "delivery-" + orderID.String(),
		TaskQueue: DeliveryTaskQueue,
	}, DeliveryWorkflow, DeliveryInput{OrderID: orderID, LeadTime: leadTime})
	if err != nil {
		return nil, fmt.Errorf("start delivery workflow for order %s: %w", orderID, err)
	}
	return run, nil
}
