//go:build unit

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/pgconv"
	"stayhub/internal/usecase/jobs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobQueries struct {
	mock.Mock
}

func (m *MockJobQueries) InsertJob(ctx context.Context, dbtx db.DBTX, arg db.InsertJobParams) (int64, error) {
	args := m.Called(ctx, dbtx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobQueries) ClaimJob(ctx context.Context, dbtx db.DBTX, arg db.ClaimJobParams) (db.Job, error) {
	args := m.Called(ctx, dbtx, arg)
	return args.Get(0).(db.Job), args.Error(1)
}

func (m *MockJobQueries) FinishJob(ctx context.Context, dbtx db.DBTX, arg db.FinishJobParams) (int64, error) {
	args := m.Called(ctx, dbtx, arg)
	return args.Get(0).(int64), args.Error(1)
}

func TestJobRepository_Enqueue(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	policies := jobs.Policies{jobs.KindChannelPush: {MaxAttempts: 5, BaseDelay: time.Minute, Factor: 2}}
	bookingID := uuid.New()

	tests := []struct {
		name  string
		job   jobs.NewJob
		rows  int64
		check func(t *testing.T, p db.InsertJobParams)
		want  bool
	}{
		{
			name: "success: policy attempts and immediate run",
			job:  jobs.NewJob{Kind: jobs.KindChannelPush, Payload: map[string]string{"booking_id": bookingID.String()}, DedupeKey: "channel.push:" + bookingID.String()},
			rows: 1,
			check: func(t *testing.T, p db.InsertJobParams) {
				assert.Equal(t, int32(5), p.MaxAttempts)
				assert.True(t, p.RunAt.Time.Equal(now))
				assert.Equal(t, "channel.push:"+bookingID.String(), p.DedupeKey.String)
				assert.JSONEq(t, `{"booking_id":"`+bookingID.String()+`"}`, string(p.Payload))
			},
			want: true,
		},
		{
			name: "success: unknown kind falls back to default policy",
			job:  jobs.NewJob{Kind: jobs.KindNotification, Payload: struct{}{}, RunAt: now.Add(time.Hour)},
			rows: 1,
			check: func(t *testing.T, p db.InsertJobParams) {
				assert.Equal(t, int32(3), p.MaxAttempts)
				assert.True(t, p.RunAt.Time.Equal(now.Add(time.Hour)))
				assert.False(t, p.DedupeKey.Valid)
			},
			want: true,
		},
		{
			name:  "success: dedupe key already held",
			job:   jobs.NewJob{Kind: jobs.KindChannelPush, Payload: struct{}{}, DedupeKey: "k"},
			rows:  0,
			check: func(t *testing.T, p db.InsertJobParams) {},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockJobQueries)
			var got db.InsertJobParams
			q.On("InsertJob", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(2).(db.InsertJobParams) }).
				Return(tt.rows, nil)

			repo := NewJobRepository(q, nil, policies, clock.NewMockClock(now))
			ok, err := repo.Enqueue(context.Background(), tt.job)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			tt.check(t, got)
		})
	}

	t.Run("error: unencodable payload", func(t *testing.T) {
		repo := NewJobRepository(new(MockJobQueries), nil, policies, clock.NewMockClock(now))
		_, err := repo.Enqueue(context.Background(), jobs.NewJob{Kind: jobs.KindChannelPush, Payload: make(chan int)})
		assert.Error(t, err)
	})
}

func TestJobStore_Claim(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success: nothing runnable", func(t *testing.T) {
		q := new(MockJobQueries)
		q.On("ClaimJob", mock.Anything, mock.Anything, mock.Anything).Return(db.Job{}, pgx.ErrNoRows)

		job, err := NewJobStore(q, nil, clock.NewMockClock(now)).Claim(context.Background(), "w1", now, now.Add(-time.Minute))

		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("success: leased row converted", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]string{"booking_id": "x"})
		row := db.Job{
			ID:          uuid.New(),
			Kind:        "channel.cancel",
			Payload:     payload,
			Status:      "running",
			Attempts:    2,
			MaxAttempts: 5,
			DedupeKey:   pgconv.TextFromString("channel.cancel:x"),
			CreatedAt:   pgconv.TimeToPgtype(now),
		}
		q := new(MockJobQueries)
		q.On("ClaimJob", mock.Anything, mock.Anything, mock.MatchedBy(func(p db.ClaimJobParams) bool {
			return p.Worker == "w1" && p.StaleBefore.Time.Equal(now.Add(-time.Minute))
		})).Return(row, nil)

		job, err := NewJobStore(q, nil, clock.NewMockClock(now)).Claim(context.Background(), "w1", now, now.Add(-time.Minute))

		require.NoError(t, err)
		assert.Equal(t, jobs.KindChannelCancel, job.Kind)
		assert.Equal(t, 2, job.Attempts)
		assert.Equal(t, 5, job.MaxAttempts)
		assert.Equal(t, "channel.cancel:x", job.DedupeKey)
	})
}

func TestJobStore_Finish(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	job := &jobs.Job{ID: uuid.New()}

	t.Run("success: retry requeues with run_at", func(t *testing.T) {
		runAt := now.Add(2 * time.Minute)
		q := new(MockJobQueries)
		q.On("FinishJob", mock.Anything, mock.Anything, mock.MatchedBy(func(p db.FinishJobParams) bool {
			return p.Status == "queued" && p.RunAt.Time.Equal(runAt) && p.LastError == "timeout" && p.Worker == "w1"
		})).Return(int64(1), nil)

		err := NewJobStore(q, nil, clock.NewMockClock(now)).Retry(context.Background(), job, "w1", runAt, "timeout")

		assert.NoError(t, err)
		q.AssertExpectations(t)
	})

	t.Run("success: complete leaves run_at untouched", func(t *testing.T) {
		q := new(MockJobQueries)
		q.On("FinishJob", mock.Anything, mock.Anything, mock.MatchedBy(func(p db.FinishJobParams) bool {
			return p.Status == "done" && !p.RunAt.Valid
		})).Return(int64(1), nil)

		assert.NoError(t, NewJobStore(q, nil, clock.NewMockClock(now)).Complete(context.Background(), job, "w1"))
	})

	t.Run("error: lease lost to another worker", func(t *testing.T) {
		q := new(MockJobQueries)
		q.On("FinishJob", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

		err := NewJobStore(q, nil, clock.NewMockClock(now)).Fail(context.Background(), job, "w1", "boom")

		assert.True(t, infra.IsKind(err, infra.KindStaleState))
	})
}
