package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakeScheduleStore struct {
	schedules []core.RecurringSchedule
	listErr   error
	commitErr error

	committed map[int64][]core.Transaction
	nextID    int64
}

func (f *fakeScheduleStore) ListActiveRecurringSchedules(ctx context.Context) ([]core.RecurringSchedule, error) {
	return f.schedules, f.listErr
}

func (f *fakeScheduleStore) CommitGenerated(ctx context.Context, s core.RecurringSchedule, instances []core.Transaction) ([]int64, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	if f.committed == nil {
		f.committed = make(map[int64][]core.Transaction)
	}
	f.committed[s.ID] = append(f.committed[s.ID], instances...)
	ids := make([]int64, len(instances))
	for i := range instances {
		f.nextID++
		ids[i] = f.nextID
	}
	// Mirror the repository by advancing the stored checkpoint.
	for i := range f.schedules {
		if f.schedules[i].ID == s.ID {
			f.schedules[i].LastGenerated = instances[len(instances)-1].Date
		}
	}
	return ids, nil
}

type countingPublisher struct {
	published []int64
	err       error
}

func (p *countingPublisher) PublishTransactionSync(ctx context.Context, id, version int64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func monthlySchedule(id int64) core.RecurringSchedule {
	return core.RecurringSchedule{
		ID:          id,
		Type:        core.Expense,
		Amount:      core.Money{Cents: 2500},
		Category:    "Subscriptions",
		Description: "Streaming",
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 15),
		IsActive:    true,
	}
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	store := &fakeScheduleStore{schedules: []core.RecurringSchedule{monthlySchedule(1)}}
	pub := &countingPublisher{}
	p := NewRecurringProcessor(store, pub)

	now := time.Date(2024, 4, 10, 9, 30, 0, 0, time.UTC)
	created, err := p.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2 (Feb 15 and Mar 15)", created)
	}
	if len(store.committed[1]) != 2 {
		t.Errorf("committed %d instances, want 2", len(store.committed[1]))
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d sync messages, want 2", len(pub.published))
	}
}

func TestRecurringProcessor_SecondPassIsIdempotent(t *testing.T) {
	store := &fakeScheduleStore{schedules: []core.RecurringSchedule{monthlySchedule(1)}}
	p := NewRecurringProcessor(store, nil)

	now := time.Date(2024, 4, 10, 9, 30, 0, 0, time.UTC)
	if _, err := p.ProcessDue(context.Background(), now); err != nil {
		t.Fatalf("first pass error = %v", err)
	}
	created, err := p.ProcessDue(context.Background(), now)
	if err != nil {
		t.Fatalf("second pass error = %v", err)
	}
	if created != 0 {
		t.Errorf("second pass created %d transactions, want 0", created)
	}
}

func TestRecurringProcessor_CheckpointConflictSkipsSchedule(t *testing.T) {
	store := &fakeScheduleStore{
		schedules: []core.RecurringSchedule{monthlySchedule(1)},
		commitErr: storage.ErrCheckpointConflict,
	}
	p := NewRecurringProcessor(store, nil)

	created, err := p.ProcessDue(context.Background(), time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() should not fail on a checkpoint conflict: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d, want 0 on conflict", created)
	}
}

func TestRecurringProcessor_ListErrorFailsPass(t *testing.T) {
	store := &fakeScheduleStore{listErr: errors.New("db closed")}
	p := NewRecurringProcessor(store, nil)

	if _, err := p.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Error("expected error when listing schedules fails")
	}
}

func TestRecurringProcessor_PublisherErrorDoesNotFailPass(t *testing.T) {
	store := &fakeScheduleStore{schedules: []core.RecurringSchedule{monthlySchedule(1)}}
	pub := &countingPublisher{err: errors.New("broker down")}
	p := NewRecurringProcessor(store, pub)

	created, err := p.ProcessDue(context.Background(), time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2 even when publishing fails", created)
	}
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	p := NewRecurringProcessor(nil, nil)
	if _, err := p.ProcessDue(context.Background(), time.Now()); err == nil {
		t.Error("expected error for uninitialized processor")
	}
}
