package testutil

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/engipa/internal/dictionary"
	"codeberg.org/snonux/engipa/internal/phoneme"
)

// MockBackend is an in-memory dictionary backend that records its calls
// and can be told to fail
type MockBackend struct {
	Entries map[string][]string
	Err     error
	Calls   []string
}

// LookupMany mocks a batched lookup
func (m *MockBackend) LookupMany(ctx context.Context, keys []string) (map[string][]phoneme.Entry, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("LOOKUP %s", strings.Join(keys, ",")))
	if m.Err != nil {
		return nil, m.Err
	}

	result := make(map[string][]phoneme.Entry)
	for _, key := range keys {
		for _, v := range m.Entries[key] {
			result[key] = append(result[key], phoneme.Parse(v))
		}
	}
	return result, nil
}

// SuffixSearch mocks a suffix query
func (m *MockBackend) SuffixSearch(ctx context.Context, suffix phoneme.Entry, excludeKey, excludeFull string) ([]string, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("SUFFIX %s", suffix))
	if m.Err != nil {
		return nil, m.Err
	}
	return dictionary.NewFlatMapFromEntries(m.Entries).SuffixSearch(ctx, suffix, excludeKey, excludeFull)
}

// ContainsIPA mocks an IPA substring query
func (m *MockBackend) ContainsIPA(ctx context.Context, fragment string) ([]dictionary.IPAMatch, error) {
	m.Calls = append(m.Calls, fmt.Sprintf("CONTAINS %s", fragment))
	if m.Err != nil {
		return nil, m.Err
	}
	return dictionary.NewFlatMapFromEntries(m.Entries).ContainsIPA(ctx, fragment)
}

// Name returns the mock name
func (m *MockBackend) Name() string {
	return "mock"
}

// Close does nothing
func (m *MockBackend) Close() error {
	return nil
}
