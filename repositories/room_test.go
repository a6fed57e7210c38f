package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "pairchat/errors"
)

func TestCreateRoomIdempotentOnUnorderedPair(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	store, err := NewRoomStore(db)
	req.NoError(err)
	defer store.Close()

	first, err := store.CreateRoom("1", "2")
	req.NoError(err)

	// Same pair, reversed order: must resolve to the existing room.
	again, err := store.CreateRoom("2", "1")
	req.NoError(err)
	req.Equal(first.ID, again.ID)

	other, err := store.CreateRoom("1", "3")
	req.NoError(err)
	req.NotEqual(first.ID, other.ID)
}

func TestCreateRoomRejectsDegeneratePairs(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	store, err := NewRoomStore(db)
	req.NoError(err)
	defer store.Close()

	_, err = store.CreateRoom("1", "1")
	req.Error(err)
	_, err = store.CreateRoom("", "2")
	req.Error(err)
}

func TestIsParticipant(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	store, err := NewRoomStore(db)
	req.NoError(err)
	defer store.Close()

	room, err := store.CreateRoom("1", "2")
	req.NoError(err)

	ok, err := store.IsParticipant(room.ID, "1")
	req.NoError(err)
	req.True(ok)

	ok, err = store.IsParticipant(room.ID, "3")
	req.NoError(err)
	req.False(ok)

	_, err = store.IsParticipant(9999, "1")
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}
