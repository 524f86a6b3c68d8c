package device

import "errors"

var (
	ErrInvalidProperty   = errors.New("invalid property")
	ErrUnknownReceptor   = errors.New("unknown receptor type")
	ErrUnknownRecordable = errors.New("unknown recordable")
	ErrUnknownModel      = errors.New("unknown generator model")
	ErrNotCalibrated     = errors.New("device is not calibrated")
	ErrBuffersNotReady   = errors.New("device buffers are not initialized")
	ErrBadSlice          = errors.New("invalid update slice")
	ErrBadDelay          = errors.New("current event delay must be > 0")
	ErrModelMismatch     = errors.New("prototype model mismatch")
)
