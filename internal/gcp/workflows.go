package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/medpal/docextract/internal/models"
)

// WorkflowNotifier starts one Cloud Workflows execution per finished document.
type WorkflowNotifier struct {
	client *executions.Client
	parent string
}

func NewWorkflowNotifier(ctx context.Context, projectID, location, workflowID string) (*WorkflowNotifier, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowNotifier: projectID, location and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create executions client: %w", err)
	}
	return &WorkflowNotifier{client: client, parent: WorkflowParent(projectID, location, workflowID)}, nil
}

// WorkflowParent is the resource name executions are created under.
func WorkflowParent(projectID, location, workflowID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID)
}

// Notify passes the summary as the execution argument.
func (n *WorkflowNotifier) Notify(ctx context.Context, summary models.Summary) error {
	payloadBytes, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := n.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (n *WorkflowNotifier) Close() error {
	return n.client.Close()
}
