package workflows

import (
	"encoding/json"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// DefaultTaskQueue is the queue the reindex worker polls.
const DefaultTaskQueue = "reindex-queue"

// Application error types returned by the activities. They are not retried.
const (
	ErrTypeCollectionNotFound = "CollectionNotFound"
	ErrTypeNoIndexSchema      = "NoIndexSchema"
)

// ReindexInput is the input for the reindex workflow.
type ReindexInput struct {
	Bucket     string
	Collection string
}

// ReindexResult summarizes a finished reindex.
type ReindexResult struct {
	Indexed int
	Pages   int
}

// WorkflowID returns the id used for a collection's reindex, so that two
// reindexes of the same collection never run at once.
func WorkflowID(bucket, collection string) string {
	return "reindex-" + bucket + "-" + collection
}

// ReindexWorkflow rebuilds a collection's search index: it reads the index
// schema from the collection metadata, recreates the index, then indexes the
// stored records page by page, newest first.
func ReindexWorkflow(ctx workflow.Context, input ReindexInput) (ReindexResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting reindex workflow", "bucket", input.Bucket, "collection", input.Collection)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			NonRetryableErrorTypes: []string{
				ErrTypeCollectionNotFound,
				ErrTypeNoIndexSchema,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Read the index mapping
	var schema json.RawMessage
	if err := workflow.ExecuteActivity(ctx, "FetchIndexSchema", input.Bucket, input.Collection).Get(ctx, &schema); err != nil {
		return ReindexResult{}, err
	}

	// Step 2: Drop and recreate the index
	if err := workflow.ExecuteActivity(ctx, "RecreateIndex", input.Bucket, input.Collection, schema).Get(ctx, nil); err != nil {
		return ReindexResult{}, err
	}

	// Step 3: Index every page
	var (
		result ReindexResult
		before *int64
	)
	for {
		var page PageOutput
		if err := workflow.ExecuteActivity(ctx, "IndexPage", input.Bucket, input.Collection, before).Get(ctx, &page); err != nil {
			return result, err
		}
		result.Indexed += page.Indexed
		result.Pages++
		if page.Done {
			break
		}
		before = page.Next
	}

	logger.Info("Reindex finished", "indexed", result.Indexed, "pages", result.Pages)
	return result, nil
}
