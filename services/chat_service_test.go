package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pairchat/domain"
	"pairchat/domain/event"
	apperrors "pairchat/errors"
	"pairchat/mocks"
	"pairchat/moderation"

	"log/slog"
)

func newService(t *testing.T, filter *moderation.Filter) (*ChatService, *mocks.MockIMessageLog, *mocks.MockIBus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageLog(ctrl)
	fanout := mocks.NewMockIBus(ctrl)
	svc := NewChatService(slog.Default(), messages, fanout, filter, false, 2, time.Millisecond)
	return svc, messages, fanout
}

func TestPostMessagePersistsBeforePublishing(t *testing.T) {
	req := require.New(t)
	svc, messages, fanout := newService(t, nil)

	at := time.Now().UTC()
	persisted := domain.Message{ID: 7, Room: 1, SenderID: "1", Content: "Hello from A", CreatedAt: at}

	gomock.InOrder(
		messages.EXPECT().Append(domain.RoomID(1), "1", "Hello from A").Return(persisted, nil),
		fanout.EXPECT().Publish(gomock.Any(), domain.RoomID(1), event.MessagePosted{
			ID: 7, Room: 1, SenderID: "1", Content: "Hello from A", At: at,
		}).Return(nil),
	)

	got, err := svc.PostMessage(context.Background(), 1, domain.Identity{UserID: "1"}, "Hello from A")
	req.NoError(err)
	req.Equal(persisted, got)
}

func TestPostMessageDoesNotPublishOnAppendFailure(t *testing.T) {
	req := require.New(t)
	svc, messages, _ := newService(t, nil)

	messages.EXPECT().
		Append(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.Message{}, apperrors.ErrMessageNotSaved)
	// No Publish expectation: a publish call would fail the test.

	_, err := svc.PostMessage(context.Background(), 1, domain.Identity{UserID: "1"}, "lost")
	req.ErrorIs(err, apperrors.ErrMessageNotSaved)
}

func TestPostMessageMasksContent(t *testing.T) {
	req := require.New(t)
	filter, err := moderation.NewFilter([]string{"badword"}, '*')
	req.NoError(err)
	svc, messages, fanout := newService(t, filter)

	messages.EXPECT().
		Append(domain.RoomID(1), "1", "a ******* here").
		Return(domain.Message{ID: 1, Room: 1, SenderID: "1", Content: "a ******* here"}, nil)
	fanout.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err = svc.PostMessage(context.Background(), 1, domain.Identity{UserID: "1"}, "a badword here")
	req.NoError(err)
}

func TestTypingIsNeverPersisted(t *testing.T) {
	req := require.New(t)
	svc, _, fanout := newService(t, nil)

	// The message log mock has no expectations: any Append would fail.
	fanout.EXPECT().
		Publish(gomock.Any(), domain.RoomID(1), event.TypingSignaled{Room: 1, UserID: "2", IsTyping: true}).
		Return(nil)

	req.NoError(svc.SignalTyping(context.Background(), 1, "2", true))
}

func TestPublishRetriesTransientFailures(t *testing.T) {
	req := require.New(t)
	svc, _, fanout := newService(t, nil)

	gomock.InOrder(
		fanout.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("%w: flaky", apperrors.ErrBrokerUnavailable)),
		fanout.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil),
	)

	req.NoError(svc.PublishPresence(context.Background(), 1, "1", event.StatusOnline))
}

func TestPublishGivesUpAfterBoundedRetries(t *testing.T) {
	req := require.New(t)
	svc, _, fanout := newService(t, nil)

	fanout.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(apperrors.ErrBrokerUnavailable).
		Times(3)

	err := svc.SignalTyping(context.Background(), 1, "1", false)
	req.ErrorIs(err, apperrors.ErrBrokerUnavailable)
}
