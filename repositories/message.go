package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"pairchat/domain"
	apperrors "pairchat/errors"
)

// MessageLog is the append-only, room-scoped record of chat messages.
// Ids come from a badger sequence so they are monotonic across the whole
// system, and timestamps are assigned here, never taken from the client.
type MessageLog struct {
	db            *badger.DB
	seq           *badger.Sequence
	log           *slog.Logger
	limitMessages *int
}

const messageSeqBandwidth = 128

func NewMessageLog(db *badger.DB, log *slog.Logger, limitMessages *int) (*MessageLog, error) {
	seq, err := db.GetSequence([]byte("seq:message"), messageSeqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageLog{db: db, seq: seq, log: log, limitMessages: limitMessages}, nil
}

// Close releases the unused part of the id sequence back to badger.
func (m *MessageLog) Close() error {
	return m.seq.Release()
}

type diskMessage struct {
	ID       uint64    `json:"id"`
	Room     int       `json:"room"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	At       time.Time `json:"at"`
}

// Append persists a message and returns the record with its assigned id
// and server timestamp. The key is formatted as "msg:{room_id}:{id_padded}" to
// ensure append ordering under badger's lexicographical iteration, using
// 19-digit zero padding.
func (m *MessageLog) Append(room domain.RoomID, senderID, content string) (domain.Message, error) {
	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrMessageNotSaved, err)
	}

	record := diskMessage{
		// Sequences start at 0, message ids at 1.
		ID:       next + 1,
		Room:     int(room),
		SenderID: senderID,
		Content:  content,
		At:       time.Now().UTC(),
	}
	bytes, err := json.Marshal(record)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrMessageNotSaved, err)
	}

	key := fmt.Sprintf("msg:%d:%019d", record.Room, record.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrMessageNotSaved, err)
	}
	return toMessage(record), nil
}

// History retrieves messages for a room, newest first, using a reverse
// prefix scan. Thanks to the padded id in the key, messages are naturally
// sorted in append order. The returned cursor resumes the scan on the
// next call; collection stops once the configured limitMessages is reached.
func (m *MessageLog) History(room domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var rawValues [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%d:", room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the youngest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawValues) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawValues = append(rawValues, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.Message
	for _, b := range rawValues {
		var record diskMessage
		if err = json.Unmarshal(b, &record); err != nil {
			return nil, nil, err
		}
		messages = append(messages, toMessage(record))
	}
	if lastKey == "" {
		// Nothing read, nothing to resume from.
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

func toMessage(record diskMessage) domain.Message {
	return domain.Message{
		ID:        record.ID,
		Room:      domain.RoomID(record.Room),
		SenderID:  record.SenderID,
		Content:   record.Content,
		CreatedAt: record.At,
	}
}
