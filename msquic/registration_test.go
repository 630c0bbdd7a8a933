package msquic

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/OkutaniDaichi0106/gomsquic/msquic/internal/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "libmissing.so")

	reg, err := Open(&Config{LibraryPath: path})
	assert.Nil(t, reg)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "load", initErr.Op)
}

func TestNewRegistration(t *testing.T) {
	tests := map[string]struct {
		config        *Config
		expectAppName string
		expectProfile uint32
	}{
		"nil config": {
			config:        nil,
			expectAppName: "gomsquic",
			expectProfile: 0,
		},
		"custom": {
			config:        &Config{AppName: "echo", ExecutionProfile: ExecutionProfileMaxThroughput},
			expectAppName: "echo",
			expectProfile: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m := &MockNative{}
			m.On("Family").Return(FamilyWindows)
			m.On("RegistrationOpen", tt.expectAppName, tt.expectProfile).Return(testRegistrationHandle, native.Status(0))

			reg, err := newRegistration(m, tt.config)
			require.NoError(t, err)
			assert.Equal(t, FamilyWindows, reg.Family())
			m.AssertExpectations(t)
		})
	}
}

func TestNewRegistration_Failure(t *testing.T) {
	m := &MockNative{}
	m.On("Family").Return(FamilyPOSIX)
	m.On("RegistrationOpen", "gomsquic", uint32(0)).Return(native.Handle(0), posixStatus(CodeOutOfMemory))
	m.On("Close").Return().Once()

	reg, err := newRegistration(m, nil)
	assert.Nil(t, reg)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "RegistrationOpen", initErr.Op)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	m.AssertExpectations(t)
}

func TestRegistration_Close(t *testing.T) {
	logger, logs := newCapturingLogger()
	reg, m := newTestRegistration(t, FamilyPOSIX, logger)
	m.On("RegistrationClose", testRegistrationHandle).Return().Once()
	m.On("Close").Return().Once()

	assert.NoError(t, reg.Close())
	assert.NoError(t, reg.Close())

	m.AssertNumberOfCalls(t, "RegistrationClose", 1)
	m.AssertNumberOfCalls(t, "Close", 1)
	assert.True(t, strings.Contains(logs.String(), "closed registration"))
}

func TestRegistration_Params(t *testing.T) {
	reg, m := newTestRegistration(t, FamilyPOSIX, nil)

	m.On("SetParam", native.Handle(0x77), native.ParamLevelGlobal, uint32(3), []byte{1, 2}).Return(native.Status(0)).Once()
	m.On("SetParam", native.Handle(0x77), native.ParamLevelGlobal, uint32(4), []byte{1}).Return(posixStatus(CodeInvalidParameter)).Once()
	m.On("GetParam", native.Handle(0x77), native.ParamLevelGlobal, uint32(5), mock.Anything).
		Run(func(args mock.Arguments) {
			copy(args.Get(3).([]byte), []byte{9, 9, 9})
		}).
		Return(uint32(3), native.Status(0)).Once()

	require.NoError(t, reg.SetParam(0x77, ParamLevelGlobal, 3, []byte{1, 2}))

	err := reg.SetParam(0x77, ParamLevelGlobal, 4, []byte{1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	buf := make([]byte, 8)
	n, err := reg.GetParam(0x77, ParamLevelGlobal, 5, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 9, 9}, buf[:n])
}

func TestRegistration_CallbackStatus(t *testing.T) {
	reg, _ := newTestRegistration(t, FamilyWindows, nil)

	tests := map[string]struct {
		err    error
		expect Code
	}{
		"nil":                {err: nil, expect: CodeSuccess},
		"pending":            {err: ErrPending, expect: CodePending},
		"status error":       {err: newStatusError(FamilyWindows, 0x80004004, ""), expect: CodeAborted},
		"code only sentinel": {err: ErrNotSupported, expect: CodeNotSupported},
		"plain error":        {err: assert.AnError, expect: CodeInternalError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			status := reg.callbackStatus(tt.err, nil)
			assert.Equal(t, tt.expect, Decode(FamilyWindows, status))
		})
	}
}
