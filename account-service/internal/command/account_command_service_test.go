package command

import (
	"context"
	"errors"
	"testing"

	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/events"
)

// ---- mock implementations ----

type mockAccountCreator struct {
	createFn     func(string) (*dataapi.StatementResult, error)
	createManyFn func([]string) ([]*dataapi.StatementResult, error)
}

func (m *mockAccountCreator) CreateAccount(_ context.Context, handle string) (*dataapi.StatementResult, error) {
	return m.createFn(handle)
}

func (m *mockAccountCreator) CreateAccounts(_ context.Context, handles ...string) ([]*dataapi.StatementResult, error) {
	return m.createManyFn(handles)
}

type mockCache struct {
	invalidated []string
}

func (m *mockCache) InvalidateHandle(_ context.Context, handle string) {
	m.invalidated = append(m.invalidated, handle)
}

type publishedEvent struct {
	stream, eventType string
	data              any
}

type mockPublisher struct {
	published []publishedEvent
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, stream, eventType string, data any) (string, error) {
	m.published = append(m.published, publishedEvent{stream, eventType, data})
	return "1-0", m.err
}

// ---- tests ----

func TestCreateAccount(t *testing.T) {
	want := &dataapi.StatementResult{NumberOfRecordsUpdated: 1}
	creator := &mockAccountCreator{createFn: func(handle string) (*dataapi.StatementResult, error) {
		if handle != "alice" {
			t.Errorf("expected handle alice, got %s", handle)
		}
		return want, nil
	}}
	cache := &mockCache{}
	pub := &mockPublisher{}
	svc := NewAccountCommandService(creator, cache, pub)

	got, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Handle: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected result to be passed through unchanged")
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "alice" {
		t.Errorf("expected alice to be invalidated, got %v", cache.invalidated)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.published))
	}
	ev := pub.published[0]
	if ev.stream != events.AccountEventsStream || ev.eventType != events.AccountCreated {
		t.Errorf("unexpected event %s on %s", ev.eventType, ev.stream)
	}
	if data, ok := ev.data.(events.AccountCreatedEvent); !ok || data.Handle != "alice" {
		t.Errorf("unexpected event payload %#v", ev.data)
	}
}

func TestCreateAccountFailureHasNoSideEffects(t *testing.T) {
	cause := errors.New("boom")
	creator := &mockAccountCreator{createFn: func(string) (*dataapi.StatementResult, error) { return nil, cause }}
	cache := &mockCache{}
	pub := &mockPublisher{}
	svc := NewAccountCommandService(creator, cache, pub)

	_, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Handle: "alice"})
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to propagate, got %v", err)
	}
	if len(cache.invalidated) != 0 || len(pub.published) != 0 {
		t.Errorf("expected no side effects, got invalidations %v events %d", cache.invalidated, len(pub.published))
	}
}

func TestCreateAccountIgnoresPublishFailure(t *testing.T) {
	creator := &mockAccountCreator{createFn: func(string) (*dataapi.StatementResult, error) { return &dataapi.StatementResult{}, nil }}
	svc := NewAccountCommandService(creator, nil, &mockPublisher{err: errors.New("redis down")})

	if _, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Handle: "alice"}); err != nil {
		t.Errorf("expected publish failure to be swallowed, got %v", err)
	}
}

func TestCreateAccountWithoutRedis(t *testing.T) {
	creator := &mockAccountCreator{createFn: func(string) (*dataapi.StatementResult, error) { return &dataapi.StatementResult{}, nil }}
	svc := NewAccountCommandService(creator, nil, nil)

	if _, err := svc.CreateAccount(context.Background(), cqrs.CreateAccountCommand{Handle: "alice"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestImportAccounts(t *testing.T) {
	creator := &mockAccountCreator{createManyFn: func(handles []string) ([]*dataapi.StatementResult, error) {
		out := make([]*dataapi.StatementResult, len(handles))
		for i := range handles {
			out[i] = &dataapi.StatementResult{NumberOfRecordsUpdated: 1}
		}
		return out, nil
	}}
	cache := &mockCache{}
	pub := &mockPublisher{}
	svc := NewAccountCommandService(creator, cache, pub)

	results, err := svc.ImportAccounts(context.Background(), cqrs.ImportAccountsCommand{Handles: []string{"alice", "bob"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if len(cache.invalidated) != 2 || len(pub.published) != 2 {
		t.Errorf("expected per-handle side effects, got %v and %d events", cache.invalidated, len(pub.published))
	}
}

func TestHandleAccountEvent(t *testing.T) {
	cache := &mockCache{}
	svc := NewAccountCommandService(&mockAccountCreator{}, cache, nil)

	// Payloads arrive as generic maps after the envelope is decoded.
	err := svc.HandleAccountEvent(context.Background(), events.Event{
		Type: events.AccountCreated,
		Data: map[string]any{"handle": "bob"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "bob" {
		t.Errorf("expected bob to be invalidated, got %v", cache.invalidated)
	}

	if err := svc.HandleAccountEvent(context.Background(), events.Event{Type: "something.else"}); err != nil {
		t.Errorf("expected unrelated events to be ignored, got %v", err)
	}
	if len(cache.invalidated) != 1 {
		t.Errorf("expected no further invalidations, got %v", cache.invalidated)
	}
}
