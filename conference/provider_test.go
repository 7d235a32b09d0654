package conference_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/video-hearings-api/conference"
	"github.com/linesmerrill/video-hearings-api/models"
)

type blockingSource struct {
	calls   int32
	release chan struct{}
	conf    *models.Conference
	err     error
}

func (s *blockingSource) FindConference(ctx context.Context, id string) (*models.Conference, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.conf, nil
}

func testConference() *models.Conference {
	return &models.Conference{
		ID: "conf-1",
		Participants: []models.Participant{
			{ID: "p1", Username: "judge@hmcts.net", Role: models.RoleJudge},
		},
	}
}

func TestCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	src := &blockingSource{release: make(chan struct{}), conf: testConference()}
	c := conference.NewCache(src, 10, time.Minute)

	var wg sync.WaitGroup
	results := make([]*models.Conference, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conf, err := c.GetConference(context.Background(), "conf-1")
			assert.NoError(t, err)
			results[i] = conf
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
	for _, conf := range results {
		require.NotNil(t, conf)
		assert.Equal(t, "conf-1", conf.ID)
	}
}

func TestCache_ReturnsPrivateCopies(t *testing.T) {
	src := &blockingSource{conf: testConference()}
	c := conference.NewCache(src, 10, time.Minute)

	first, err := c.GetConference(context.Background(), "conf-1")
	require.NoError(t, err)
	first.Participants[0].CurrentRoom = &models.ConsultationRoom{Label: "Room1"}

	second, err := c.GetConference(context.Background(), "conf-1")
	require.NoError(t, err)
	assert.Nil(t, second.Participants[0].CurrentRoom)
	assert.Equal(t, int32(1), src.calls)
}

func TestCache_ForceGetConferenceBypassesMemo(t *testing.T) {
	src := &blockingSource{conf: testConference()}
	c := conference.NewCache(src, 10, time.Minute)

	_, err := c.GetConference(context.Background(), "conf-1")
	require.NoError(t, err)
	_, err = c.ForceGetConference(context.Background(), "conf-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls)
}

func TestCache_NotFound(t *testing.T) {
	src := &blockingSource{err: conference.ErrNotFound}
	c := conference.NewCache(src, 10, time.Minute)

	_, err := c.GetConference(context.Background(), "missing")
	assert.True(t, errors.Is(err, conference.ErrNotFound))

	// failures are not memoized
	_, _ = c.GetConference(context.Background(), "missing")
	assert.Equal(t, int32(2), src.calls)
}

func TestCache_CallerCancelled(t *testing.T) {
	src := &blockingSource{release: make(chan struct{}), conf: testConference()}
	defer close(src.release)
	c := conference.NewCache(src, 10, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetConference(ctx, "conf-1")
	assert.ErrorIs(t, err, context.Canceled)
}
