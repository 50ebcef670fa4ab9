package game

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- Player ---

type MockPlayer struct {
	mock.Mock
}

func (m *MockPlayer) Id() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPlayer) Role() Role {
	args := m.Called()
	return args.Get(0).(Role)
}

func (m *MockPlayer) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockPlayer) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockPlayer) SetRoom(r Room) {
	m.Called(r)
}

func (m *MockPlayer) CancelAndRelease() {
	m.Called()
}

// --- Room ---

type MockRoom struct {
	mock.Mock
}

func (m *MockRoom) RequestJoin(jreq roomJoinRequest) {
	m.Called(jreq)
}

func (m *MockRoom) Send(ctx context.Context, e clientEventEnvelope) {
	m.Called(ctx, e)
}

func (m *MockRoom) RemoveMe(ctx context.Context, p Player) {
	m.Called(ctx, p)
}

func (m *MockRoom) Tick(now time.Time) {
	m.Called(now)
}

func (m *MockRoom) PingPlayers() {
	m.Called()
}

func (m *MockRoom) GameLoop() {
	m.Called()
}

func (m *MockRoom) CloseAndRelease() {
	m.Called()
}

func (m *MockRoom) Description() RoomDescription {
	args := m.Called()
	return args.Get(0).(RoomDescription)
}

func (m *MockRoom) SetParentLobby(l Lobby) {
	m.Called(l)
}

func (m *MockRoom) SetId(id string) {
	m.Called(id)
}

// --- Lobby ---

type MockLobby struct {
	mock.Mock
}

func (m *MockLobby) RequestAddAndRunRoom(ctx context.Context, r Room) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (m *MockLobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, roomId string, jreq roomJoinRequest) {
	m.Called(ctx, roomId, jreq)
}

func (m *MockLobby) RequestUpdateDescription(desc RoomDescription) {
	m.Called(desc)
}

func (m *MockLobby) GetRoomDescription(ctx context.Context, code string) (RoomDescription, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(RoomDescription), args.Error(1)
}

func (m *MockLobby) ListOpenRooms(ctx context.Context) []RoomDescription {
	args := m.Called(ctx)
	return args.Get(0).([]RoomDescription)
}

func (m *MockLobby) RemoveRoom(roomId string) {
	m.Called(roomId)
}
