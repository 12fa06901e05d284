package scheduler

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	fail bool
}

func (j *countingJob) Run() error {
	j.runs++
	if j.fail {
		return fmt.Errorf("job failed")
	}
	return nil
}

func (j *countingJob) Name() string { return "counting" }

func TestAddJobValidatesSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 3 * * *", &countingJob{}))
	require.NoError(t, s.AddJob("@hourly", &countingJob{}))
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	job := &countingJob{}
	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &countingJob{fail: true}
	assert.Error(t, s.RunNow(failing))
	assert.Equal(t, 1, failing.runs)
}
