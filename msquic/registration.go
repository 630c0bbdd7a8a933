package msquic

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/bassosimone/errclass"
)

// Registration is the root object. It owns the loaded library and the native
// registration every other object is created under.
type Registration struct {
	api    native.API
	handle native.Handle
	family Family
	logger *slog.Logger

	closed atomic.Bool
}

// Open loads the native library and opens a registration.
func Open(config *Config) (*Registration, error) {
	logger := config.logger()

	lib, err := native.Load(config.libraryPath(), dispatchCallbacks)
	if err != nil {
		if logger != nil {
			logger.Error("failed to load msquic",
				"path", config.libraryPath(),
				"error", err.Error(),
				"error_class", errclass.New(err),
			)
		}
		var openErr *native.OpenError
		if errors.As(err, &openErr) {
			return nil, &InitializationError{
				Op:  "MsQuicOpen",
				Err: newStatusError(hostFamily, openErr.Status, ""),
			}
		}
		return nil, &InitializationError{Op: "load", Err: err}
	}

	return newRegistration(lib, config)
}

func newRegistration(api native.API, config *Config) (*Registration, error) {
	family := api.Family()
	logger := config.logger()

	h, status := api.RegistrationOpen(config.appName(), uint32(config.executionProfile()))
	if !family.Succeeded(status) {
		api.Close()
		err := newStatusError(family, status, "")
		if logger != nil {
			logger.Error("failed to open registration",
				"app_name", config.appName(),
				"error", err.Error(),
			)
		}
		return nil, &InitializationError{Op: "RegistrationOpen", Err: err}
	}

	if logger != nil {
		logger = logger.With("app_name", config.appName())
		logger.Debug("opened registration", "family", family.String())
	}

	return &Registration{
		api:    api,
		handle: h,
		family: family,
		logger: logger,
	}, nil
}

// Family returns the status family of the loaded library.
func (r *Registration) Family() Family {
	return r.family
}

// Close closes the registration and unloads the library. Every object created
// from r must be closed first.
func (r *Registration) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.api.RegistrationClose(r.handle)
	r.api.Close()

	if r.logger != nil {
		r.logger.Debug("closed registration")
	}
	return nil
}

// SetParam sets a parameter on any handle created under r.
func (r *Registration) SetParam(h Handle, level ParamLevel, param uint32, value []byte) error {
	status := r.api.SetParam(h, level, param, value)
	return r.check(status, fmt.Sprintf("set param %d at level %d", param, level))
}

// GetParam reads a parameter into buf and returns the length the library wrote.
func (r *Registration) GetParam(h Handle, level ParamLevel, param uint32, buf []byte) (int, error) {
	n, status := r.api.GetParam(h, level, param, buf)
	if err := r.check(status, fmt.Sprintf("get param %d at level %d", param, level)); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *Registration) check(status Status, msg string) error {
	if r.family.Succeeded(status) {
		return nil
	}
	return newStatusError(r.family, status, msg)
}

// localError builds a StatusError for a failure detected before calling the library.
func (r *Registration) localError(c Code, msg string) *StatusError {
	s, _ := Encode(r.family, c)
	return &StatusError{Status: s, Code: c, Name: c.String(), Message: msg}
}

func (r *Registration) status(c Code) native.Status {
	s, _ := Encode(r.family, c)
	return s
}

// callbackStatus converts the error returned by a user callback into the
// status reported to the library.
func (r *Registration) callbackStatus(err error, logger *slog.Logger) native.Status {
	if err == nil {
		return r.status(CodeSuccess)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Status != 0 {
			return statusErr.Status
		}
		if s, ok := Encode(r.family, statusErr.Code); ok {
			return s
		}
	}

	if logger != nil {
		logger.Debug("event callback returned an error",
			"error", err.Error(),
			"error_class", errclass.New(err),
		)
	}
	return r.status(CodeInternalError)
}

// recoverCallback must be deferred directly by event handlers. A panic is
// logged and reported to the library as INTERNAL_ERROR.
func (r *Registration) recoverCallback(kind string, logger *slog.Logger, status *native.Status) {
	v := recover()
	if v == nil {
		return
	}

	err, ok := v.(error)
	if !ok {
		err = fmt.Errorf("%v", v)
	}
	if logger != nil {
		logger.Error("recovered panic in event callback",
			"object", kind,
			"error", err.Error(),
			"error_class", errclass.New(err),
			"stack", string(debug.Stack()),
		)
	}
	*status = r.status(CodeInternalError)
}
