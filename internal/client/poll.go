package client

import (
	"context"
	"time"

	"docportal-backend/internal/models"
)

// DefaultPollInterval is how often WaitForCompletion asks for the status.
const DefaultPollInterval = 2 * time.Second

// Poll calls check immediately and then every interval until it reports
// done, returns an error or ctx ends. Only one check runs at a time, so a
// slow answer never overlaps the next poll.
func Poll(ctx context.Context, interval time.Duration, check func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForCompletion polls the project status until generation completes or
// fails and returns the final status. A failed generation is not an error.
func (c *Client) WaitForCompletion(ctx context.Context, projectID string, interval time.Duration) (*models.StatusResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	var last *models.StatusResponse
	err := Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		status, err := c.GetStatus(ctx, projectID)
		if err != nil {
			return false, err
		}
		last = status
		return status.Status == models.StatusCompleted || status.Status == models.StatusError, nil
	})
	if err != nil {
		return last, err
	}
	return last, nil
}
