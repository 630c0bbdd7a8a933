package msquic

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// newConnectionID returns a UUIDv7 correlating the log records of one connection.
//
// It panics if the system random number generator fails.
func newConnectionID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
