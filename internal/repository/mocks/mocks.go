package mocks

import (
	"context"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/stretchr/testify/mock"
)

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Create(ctx context.Context, act *activity.Activity) error {
	args := m.Called(ctx, act)
	return args.Error(0)
}

func (m *ActivityRepository) LoadActivity(ctx context.Context, id string) (*activity.Activity, error) {
	args := m.Called(ctx, id)
	if act, ok := args.Get(0).(*activity.Activity); ok {
		return act, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Activity); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) SaveActivityTimer(ctx context.Context, id string, cols activity.TimerColumns) error {
	args := m.Called(ctx, id, cols)
	return args.Error(0)
}

func (m *ActivityRepository) MarkActivityStatus(ctx context.Context, id string, status activity.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ActivityRepository) SetReason(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *ActivityRepository) AddIdleTime(ctx context.Context, id string, idle time.Duration) error {
	args := m.Called(ctx, id, idle)
	return args.Error(0)
}

// JournalRepository is a mock for journal.Repository.
type JournalRepository struct {
	mock.Mock
}

func (m *JournalRepository) Log(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *JournalRepository) List(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]journal.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// DailyStore is a mock for daily.Store.
type DailyStore struct {
	mock.Mock
}

func (m *DailyStore) LoadDay(ctx context.Context, userID string, day time.Time) (time.Duration, error) {
	args := m.Called(ctx, userID, day)
	return args.Get(0).(time.Duration), args.Error(1)
}

func (m *DailyStore) SaveDay(ctx context.Context, userID string, day time.Time, accumulated time.Duration) error {
	args := m.Called(ctx, userID, day, accumulated)
	return args.Error(0)
}
