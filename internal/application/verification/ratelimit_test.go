package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-verify-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func activeRecords(n int) []domain.PhoneVerification {
	out := make([]domain.PhoneVerification, n)
	for i := range out {
		out[i] = domain.PhoneVerification{
			CreatedAt: testNow.Add(-time.Minute),
			ExpiresAt: testNow.Add(10 * time.Minute).Unix(),
		}
	}
	return out
}

func lapsedRecords(n int) []domain.PhoneVerification {
	out := make([]domain.PhoneVerification, n)
	for i := range out {
		out[i] = domain.PhoneVerification{
			CreatedAt: testNow.Add(-30 * time.Minute),
			ExpiresAt: testNow.Add(-15 * time.Minute).Unix(),
		}
	}
	return out
}

func TestAdmit_UnderBothCaps(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	st.On("ListRecentByPhone", mock.Anything, "79990001122", testNow.Add(-time.Hour)).
		Return(activeRecords(3), nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, time.Second).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	require.NoError(t, l.Admit(context.Background(), "79990001122"))
}

func TestAdmit_HourlyCap_CountsLapsedRecordsToo(t *testing.T) {
	// Five creations in the window reject the sixth even when every code
	// has already expired.
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(lapsedRecords(5), nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	err := l.Admit(context.Background(), "79990001122")
	assert.True(t, errors.Is(err, domain.ErrMaxLiveExceeded))
}

func TestAdmit_ActiveCap(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(activeRecords(4), nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	err := l.Admit(context.Background(), "79990001122")
	assert.True(t, errors.Is(err, domain.ErrMaxLiveExceeded))
}

func TestAdmit_ActiveCountIgnoresActivatedAndExpired(t *testing.T) {
	recs := activeRecords(4)
	recs[0].Activated = true
	recs[1].ExpiresAt = testNow.Add(-time.Second).Unix()

	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).Return(recs, nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	require.NoError(t, l.Admit(context.Background(), "79990001122"))
}

func TestAdmit_CacheHitSkipsStore(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, rateWindowKeyPrefix+"79990001122").
		Return(`{"total":2,"active":1}`, true, nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	require.NoError(t, l.Admit(context.Background(), "79990001122"))
	st.AssertNotCalled(t, "ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmit_CachedSnapshotCanReject(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return(`{"total":5,"active":0}`, true, nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	err := l.Admit(context.Background(), "79990001122")
	assert.True(t, errors.Is(err, domain.ErrMaxLiveExceeded))
	st.AssertNotCalled(t, "ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmit_CacheFailureFallsBackToStore(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, errors.New("redis down"))
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	require.NoError(t, l.Admit(context.Background(), "79990001122"))
	st.AssertCalled(t, "ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdmit_CorruptCacheEntryFallsBackToStore(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("not-json", true, nil)
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	ca.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	require.NoError(t, l.Admit(context.Background(), "79990001122"))
}

func TestAdmit_StoreFailurePropagates(t *testing.T) {
	st := &mockStore{}
	ca := &mockCache{}
	ca.On("Get", mock.Anything, mock.Anything).Return("", false, nil)
	st.On("ListRecentByPhone", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("dynamo down"))

	l := NewRateLimiter(st, ca, fixedClock{testNow}, testLimits())
	err := l.Admit(context.Background(), "79990001122")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrMaxLiveExceeded))
}

func TestShouldAttemptPush_SetNXDecides(t *testing.T) {
	ca := &mockCache{}
	ca.On("SetNX", mock.Anything, pushCooldownKeyPrefix+"79990001122", mock.Anything, 5*time.Minute).
		Return(true, nil).Once()
	ca.On("SetNX", mock.Anything, pushCooldownKeyPrefix+"79990001122", mock.Anything, 5*time.Minute).
		Return(false, nil).Once()

	l := NewRateLimiter(&mockStore{}, ca, fixedClock{testNow}, testLimits())
	assert.True(t, l.ShouldAttemptPush(context.Background(), "79990001122"))
	assert.False(t, l.ShouldAttemptPush(context.Background(), "79990001122"))
}

func TestShouldAttemptPush_CacheErrorMeansSMS(t *testing.T) {
	ca := &mockCache{}
	ca.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("redis down"))

	l := NewRateLimiter(&mockStore{}, ca, fixedClock{testNow}, testLimits())
	assert.False(t, l.ShouldAttemptPush(context.Background(), "79990001122"))
}
