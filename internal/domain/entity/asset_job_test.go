package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetJobLifecycle(t *testing.T) {
	job := NewAssetJob("tenant-1", "ws-1", JobTypeAssetPipeline, nil)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Zero(t, job.Progress)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	job.UpdateProgress(60)
	assert.Equal(t, 60, job.Progress)

	result := json.RawMessage(`{"pdf_url":"https://cdn/x.pdf"}`)
	job.Complete(result)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, result, job.OutputResult)
	require.NotNil(t, job.CompletedAt)
	assert.GreaterOrEqual(t, job.DurationMs, 0)
}

func TestAssetJobFailAndRetry(t *testing.T) {
	job := NewAssetJob("tenant-1", "ws-1", JobTypeImageRegen, json.RawMessage(`{"illustration_id":"ill-1"}`))
	job.Start()
	job.Fail("render service unavailable")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "render service unavailable", job.ErrorMessage)
	assert.True(t, job.CanRetry(3))

	job.Retry()
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.ErrorMessage)
	assert.Nil(t, job.StartedAt)

	job.Start()
	job.Fail("still down")
	job.Retry()
	job.Start()
	job.Fail("still down")
	job.Retry()
	job.Start()
	job.Fail("still down")
	assert.False(t, job.CanRetry(3))
}

func TestAssetJobCanRetryOnlyWhenFailed(t *testing.T) {
	job := NewAssetJob("tenant-1", "ws-1", JobTypeSectionRegen, nil)
	assert.False(t, job.CanRetry(3))

	job.Start()
	assert.False(t, job.CanRetry(3))
}

func TestAssetJobUpdateProgressClamps(t *testing.T) {
	job := NewAssetJob("tenant-1", "ws-1", JobTypeAssetPipeline, nil)
	job.UpdateProgress(-5)
	assert.Zero(t, job.Progress)
	job.UpdateProgress(150)
	assert.Equal(t, 100, job.Progress)
}
