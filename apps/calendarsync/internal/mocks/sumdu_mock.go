package mocks

import (
	"context"
	"sync"
	"time"

	"schedulesync.xdoubleu.com/apps/calendarsync/pkg/sumdu"
)

// MockSumduClient serves fixed records per group code.
type MockSumduClient struct {
	mu      sync.Mutex
	records map[int][]sumdu.Record
	fail    map[int]error
	calls   map[int]int
}

func NewMockSumduClient() *MockSumduClient {
	return &MockSumduClient{
		records: map[int][]sumdu.Record{},
		fail:    map[int]error{},
		calls:   map[int]int{},
	}
}

func (client *MockSumduClient) SetRecords(groupCode int, records ...sumdu.Record) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.records[groupCode] = records
	delete(client.fail, groupCode)
}

func (client *MockSumduClient) SetError(groupCode int, err error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.fail[groupCode] = err
}

func (client *MockSumduClient) Calls(groupCode int) int {
	client.mu.Lock()
	defer client.mu.Unlock()

	return client.calls[groupCode]
}

func (client *MockSumduClient) GetSchedule(
	_ context.Context,
	groupCode int,
	_ time.Time,
	_ time.Time,
) ([]sumdu.Record, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	client.calls[groupCode]++

	if err, ok := client.fail[groupCode]; ok {
		return nil, err
	}

	return client.records[groupCode], nil
}
