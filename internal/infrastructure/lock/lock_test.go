package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLocker_Lock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	id := uuid.MustParse("7b0f0f3e-3b9c-4d43-9a4f-2f1f1b3a9c10")
	locker := ForEmail(db, id, "dispatcher-1")

	mock.ExpectSetNX("amy:scheduled_email:lock:"+id.String(), "dispatcher-1", time.Minute).SetVal(true)

	assert.NoError(t, locker.Lock(context.Background(), time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_LockHeld(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := ForDispatcher(db, "dispatcher-2")

	mock.ExpectSetNX("amy:dispatcher:lock", "dispatcher-2", time.Minute).SetVal(false)

	err := locker.Lock(context.Background(), time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_LockRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "k", "v")

	mock.ExpectSetNX("k", "v", time.Second).SetErr(errors.New("connection refused"))

	err := locker.Lock(context.Background(), time.Second)
	assert.EqualError(t, err, "connection refused")
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
}

func TestLocker_Unlock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewLocker(db, "k", "v")

	mock.ExpectEval(unlockScript, []string{"k"}, "v").SetVal(int64(1))
	assert.NoError(t, locker.Unlock(context.Background()))

	mock.ExpectEval(unlockScript, []string{"k"}, "v").SetVal(int64(0))
	assert.EqualError(t, locker.Unlock(context.Background()), "unlock k: lock expired or held by someone else")
	assert.NoError(t, mock.ExpectationsWereMet())
}
