// Hand-written in the shape mockgen emits for Channel; not generated.
package modem

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"
)

// MockChannel is a mock of the Channel interface, hand-shaped to match
// what mockgen would emit for modem.Channel.
type MockChannel struct {
	ctrl     *gomock.Controller
	recorder *MockChannelMockRecorder
}

type MockChannelMockRecorder struct {
	mock *MockChannel
}

func NewMockChannel(ctrl *gomock.Controller) *MockChannel {
	mock := &MockChannel{ctrl: ctrl}
	mock.recorder = &MockChannelMockRecorder{mock}
	return mock
}

func (m *MockChannel) EXPECT() *MockChannelMockRecorder {
	return m.recorder
}

var _ Channel = (*MockChannel)(nil)

func (m *MockChannel) WriteLine(line string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WriteLine", line)
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockChannelMockRecorder) WriteLine(line any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WriteLine", reflect.TypeOf((*MockChannel)(nil).WriteLine), line)
}

func (m *MockChannel) DrainResponse() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DrainResponse")
	ret0, _ := ret[0].(string)
	return ret0
}

func (mr *MockChannelMockRecorder) DrainResponse() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DrainResponse", reflect.TypeOf((*MockChannel)(nil).DrainResponse))
}

func (m *MockChannel) ClearBuffers() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ClearBuffers")
}

func (mr *MockChannelMockRecorder) ClearBuffers() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ClearBuffers", reflect.TypeOf((*MockChannel)(nil).ClearBuffers))
}

func (m *MockChannel) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

func (mr *MockChannelMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockChannel)(nil).Close))
}
