package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_FirstHitSetsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("ratelimit:checkout:user:u1").SetVal(1)
	mock.ExpectExpire("ratelimit:checkout:user:u1", time.Minute).SetVal(true)

	ok, err := limiter.allow(context.Background(), "ratelimit:checkout:user:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("k").SetVal(31)

	ok, err := limiter.allow(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_AtLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("k").SetVal(30)

	ok, err := limiter.allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_FailsOpenOnRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 30, time.Minute)

	mock.ExpectIncr("k").SetErr(errors.New("connection refused"))

	ok, err := limiter.allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	assert.True(t, isSuspiciousUserAgent("Googlebot/2.1"))
	assert.True(t, isSuspiciousUserAgent("my-scraper 1.0"))
	assert.True(t, isSuspiciousUserAgent("WebCrawler"))
	assert.False(t, isSuspiciousUserAgent("Mozilla/5.0 (X11; Linux x86_64)"))
}
