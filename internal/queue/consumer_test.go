package queue

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacktwitter/blacktwitter/internal/repository"
)

func newNotificationRepo(t *testing.T) (*repository.NotificationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewNotificationRepo(db), mock
}

func TestHandleMessagePersistsNotification(t *testing.T) {
	repo, mock := newNotificationRepo(t)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(uint64(9), uint64(7), "like", int64(3)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	body := []byte(`{"event_id":"ev-1","recipient_id":9,"sender_id":7,"kind":"like","post_id":3}`)
	require.NoError(t, handleMessage(repo, body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleMessageRejectsMalformedJSON(t *testing.T) {
	repo, _ := newNotificationRepo(t)
	assert.Error(t, handleMessage(repo, []byte("{not json")))
}

func TestHandleMessageRejectsUnknownKind(t *testing.T) {
	repo, _ := newNotificationRepo(t)
	body := []byte(`{"recipient_id":9,"sender_id":7,"kind":"poke"}`)
	assert.Error(t, handleMessage(repo, body))
}

func TestHandleMessageRejectsSelfNotification(t *testing.T) {
	repo, _ := newNotificationRepo(t)
	body := []byte(`{"recipient_id":7,"sender_id":7,"kind":"follow"}`)
	assert.Error(t, handleMessage(repo, body))
}

func TestHandleMessageRejectsMissingParticipants(t *testing.T) {
	repo, _ := newNotificationRepo(t)
	body := []byte(`{"recipient_id":0,"sender_id":7,"kind":"follow"}`)
	assert.Error(t, handleMessage(repo, body))
}
