package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"pairchat/domain"
	apperrors "pairchat/errors"
)

// RoomStore resolves room identifiers to their two participants.
// Rooms are created by the CRUD collaborator; from the gateway's
// perspective this store is read-only, CreateRoom exists for the dev
// seeding tool and tests.
type RoomStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

const roomSeqBandwidth = 16

func NewRoomStore(db *badger.DB) (*RoomStore, error) {
	seq, err := db.GetSequence([]byte("seq:room"), roomSeqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("room sequence: %w", err)
	}
	return &RoomStore{db: db, seq: seq}, nil
}

func (r *RoomStore) Close() error {
	return r.seq.Release()
}

type diskRoom struct {
	ID           int       `json:"id"`
	ParticipantA string    `json:"participant_a"`
	ParticipantB string    `json:"participant_b"`
	CreatedAt    time.Time `json:"created_at"`
}

func roomKey(id domain.RoomID) []byte {
	return []byte(fmt.Sprintf("room:%d", id))
}

func pairKey(a, b string) []byte {
	return []byte("pair:" + domain.PairKey(a, b))
}

// GetRoom fetches a room by id or reports ErrRoomNotFound.
func (r *RoomStore) GetRoom(id domain.RoomID) (domain.Room, error) {
	var record diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("%w: room %d", apperrors.ErrRoomNotFound, id)
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(record), nil
}

// IsParticipant answers the admission check for a connection attempt.
func (r *RoomStore) IsParticipant(id domain.RoomID, identity string) (bool, error) {
	room, err := r.GetRoom(id)
	if err != nil {
		return false, err
	}
	return room.Has(identity), nil
}

// CreateRoom registers a room for an unordered participant pair.
// Creating a room for an already-existing pair returns the existing room
// instead of duplicating it: the pair index key is read and written in
// the same transaction, which linearizes concurrent creations.
func (r *RoomStore) CreateRoom(a, b string) (domain.Room, error) {
	if a == "" || b == "" || a == b {
		return domain.Room{}, fmt.Errorf("room requires two distinct participants, got %q and %q", a, b)
	}

	var existingID *domain.RoomID
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var id int
			if err := json.Unmarshal(val, &id); err != nil {
				return err
			}
			existingID = (*domain.RoomID)(&id)
			return nil
		})
	})
	if err != nil {
		return domain.Room{}, err
	}
	if existingID != nil {
		return r.GetRoom(*existingID)
	}

	next, err := r.seq.Next()
	if err != nil {
		return domain.Room{}, err
	}
	// Sequences start at 0, room ids at 1.
	id := domain.RoomID(next + 1)

	room, err := domain.NewRoom(id, a, b, time.Now().UTC())
	if err != nil {
		return domain.Room{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		// Another writer may have created the pair since the read above.
		if item, err := txn.Get(pairKey(a, b)); err == nil {
			return item.Value(func(val []byte) error {
				var raced int
				if err := json.Unmarshal(val, &raced); err != nil {
					return err
				}
				existingID = (*domain.RoomID)(&raced)
				return nil
			})
		}

		record := fromRoom(room)
		bytes, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err = txn.Set(roomKey(room.ID), bytes); err != nil {
			return err
		}
		idBytes, err := json.Marshal(int(room.ID))
		if err != nil {
			return err
		}
		return txn.Set(pairKey(a, b), idBytes)
	})
	if err != nil {
		return domain.Room{}, err
	}
	if existingID != nil {
		return r.GetRoom(*existingID)
	}
	return room, nil
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:           int(room.ID),
		ParticipantA: room.ParticipantA,
		ParticipantB: room.ParticipantB,
		CreatedAt:    room.CreatedAt,
	}
}

func toRoom(record diskRoom) domain.Room {
	return domain.Room{
		ID:           domain.RoomID(record.ID),
		ParticipantA: record.ParticipantA,
		ParticipantB: record.ParticipantB,
		CreatedAt:    record.CreatedAt,
	}
}
