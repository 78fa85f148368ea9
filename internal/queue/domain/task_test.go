package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveJobID(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		first := DeriveJobID("https://jobs.example.com/posting/123", "Senior Go Engineer")
		second := DeriveJobID("https://jobs.example.com/posting/123", "Senior Go Engineer")

		assert.Equal(t, first, second)
		assert.Len(t, first, 16)
	})

	t.Run("normalizes url case and trailing slash", func(t *testing.T) {
		base := DeriveJobID("https://jobs.example.com/posting/123", "Senior Go Engineer")

		assert.Equal(t, base, DeriveJobID("HTTPS://Jobs.Example.com/posting/123", "Senior Go Engineer"))
		assert.Equal(t, base, DeriveJobID("https://jobs.example.com/posting/123/", "Senior Go Engineer"))
		assert.Equal(t, base, DeriveJobID("  https://jobs.example.com/posting/123  ", "Senior Go Engineer"))
	})

	t.Run("normalizes title whitespace and case", func(t *testing.T) {
		base := DeriveJobID("https://jobs.example.com/posting/123", "Senior Go Engineer")

		assert.Equal(t, base, DeriveJobID("https://jobs.example.com/posting/123", "senior   go\tengineer"))
		assert.Equal(t, base, DeriveJobID("https://jobs.example.com/posting/123", " SENIOR GO ENGINEER "))
	})

	t.Run("different postings get different ids", func(t *testing.T) {
		a := DeriveJobID("https://jobs.example.com/posting/123", "Senior Go Engineer")
		b := DeriveJobID("https://jobs.example.com/posting/124", "Senior Go Engineer")
		c := DeriveJobID("https://jobs.example.com/posting/123", "Staff Go Engineer")

		assert.NotEqual(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("search keyword does not affect identity", func(t *testing.T) {
		first := NewJobTask("https://jobs.example.com/posting/123", "Senior Go Engineer", "Acme", "Remote", "golang", "")
		second := NewJobTask("https://jobs.example.com/posting/123", "Senior Go Engineer", "Acme", "Remote", "backend", "")

		assert.Equal(t, first.JobID, second.JobID)
	})
}

func TestNewJobTask(t *testing.T) {
	task := NewJobTask("https://jobs.example.com/1", "Go Engineer", "Acme", "Remote", "golang", "Build services")

	assert.Equal(t, StatusQueued, task.Status)
	assert.Equal(t, 0, task.Attempts)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Nil(t, task.Result)
	assert.Equal(t, DeriveJobID(task.URL, task.Title), task.JobID)
}

func TestJobTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		title   string
		wantErr bool
	}{
		{
			name:  "valid task",
			url:   "https://jobs.example.com/1",
			title: "Go Engineer",
		},
		{
			name:    "missing url",
			url:     "",
			title:   "Go Engineer",
			wantErr: true,
		},
		{
			name:    "whitespace url",
			url:     "   ",
			title:   "Go Engineer",
			wantErr: true,
		},
		{
			name:    "missing title",
			url:     "https://jobs.example.com/1",
			title:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewJobTask(tt.url, tt.title, "", "", "", "")
			err := task.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTask)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetryableError(t *testing.T) {
	t.Run("wraps and unwraps", func(t *testing.T) {
		cause := ErrQueueFull
		err := NewRetryableError(cause)

		assert.True(t, IsRetryable(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("plain errors are not retryable", func(t *testing.T) {
		assert.False(t, IsRetryable(ErrInvalidTask))
		assert.False(t, IsRetryable(nil))
	})
}
