package errors

import "fmt"

var (
	ErrUnauthorized       = fmt.Errorf("credential missing, malformed or expired")
	ErrForbidden          = fmt.Errorf("identity is not a participant of the room")
	ErrRoomNotFound       = fmt.Errorf("room does not exist")
	ErrBrokerUnavailable  = fmt.Errorf("fan-out broker unreachable")
	ErrServiceUnavailable = fmt.Errorf("gateway at maximum session capacity")
	ErrMessageNotSaved    = fmt.Errorf("message could not be persisted")
	ErrMalformedFrame     = fmt.Errorf("inbound frame is not a known event")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
