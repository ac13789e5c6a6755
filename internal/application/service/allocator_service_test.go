package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func newAllocatorFixture(capacity int) (*mockAssignmentRepo, *mockAuditRepo, MentorAllocator) {
	assignmentRepo := newMockAssignmentRepo()
	auditRepo := &mockAuditRepo{}
	logger := &mockLogger{}
	auditor := NewAuditRecorder(auditRepo, logger)
	allocator := NewMentorAllocator(assignmentRepo, auditor, &mockTxManager{}, capacity, logger)
	return assignmentRepo, auditRepo, allocator
}

func TestMentorAllocator_Assign_Capacity(t *testing.T) {
	assignmentRepo, auditRepo, allocator := newAllocatorFixture(3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := allocator.Assign(ctx, int64(i), "mentor-1", "coordinator-1", ""); err != nil {
			t.Fatalf("Assign() #%d error: %v", i, err)
		}
	}

	// Fourth active assignment must be refused without touching storage.
	_, err := allocator.Assign(ctx, 4, "mentor-1", "coordinator-1", "")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Assign() at capacity error = %v, want %v", err, ErrCapacityExceeded)
	}

	count, _ := assignmentRepo.CountActiveByMentor(ctx, "mentor-1")
	if count != 3 {
		t.Errorf("active assignments = %d, want 3", count)
	}
	if got := auditRepo.countByAction("assignment.created"); got != 3 {
		t.Errorf("audit entries = %d, want 3", got)
	}

	// Ending an assignment frees a slot.
	if err := allocator.Complete(ctx, 1, "coordinator-1"); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if _, err := allocator.Assign(ctx, 4, "mentor-1", "coordinator-1", ""); err != nil {
		t.Errorf("Assign() after freeing a slot error: %v", err)
	}
}

// Many goroutines race to assign the same mentor. The ACTIVE count must
// never exceed capacity and exactly capacity attempts may succeed.
func TestMentorAllocator_Assign_Concurrent(t *testing.T) {
	const capacity = 3
	const attempts = 20

	assignmentRepo, _, allocator := newAllocatorFixture(capacity)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = allocator.Assign(ctx, int64(i+1), "mentor-1", "coordinator-1", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCapacityExceeded):
		default:
			t.Errorf("Assign() #%d unexpected error: %v", i, err)
		}
	}

	if succeeded != capacity {
		t.Errorf("successful assignments = %d, want %d", succeeded, capacity)
	}
	count, _ := assignmentRepo.CountActiveByMentor(ctx, "mentor-1")
	if count != capacity {
		t.Errorf("active assignments = %d, want %d", count, capacity)
	}
}

func TestMentorAllocator_EndAssignment(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(ctx context.Context, a MentorAllocator) int64
		end     func(ctx context.Context, a MentorAllocator, id int64) error
		wantErr error
	}{
		{
			name: "complete active assignment",
			setup: func(ctx context.Context, a MentorAllocator) int64 {
				assignment, _ := a.Assign(ctx, 1, "mentor-1", "coordinator-1", "")
				return assignment.ID
			},
			end: func(ctx context.Context, a MentorAllocator, id int64) error {
				return a.Complete(ctx, id, "coordinator-1")
			},
		},
		{
			name: "cancel active assignment",
			setup: func(ctx context.Context, a MentorAllocator) int64 {
				assignment, _ := a.Assign(ctx, 1, "mentor-1", "coordinator-1", "")
				return assignment.ID
			},
			end: func(ctx context.Context, a MentorAllocator, id int64) error {
				return a.Cancel(ctx, id, "coordinator-1")
			},
		},
		{
			name: "complete twice is idempotent",
			setup: func(ctx context.Context, a MentorAllocator) int64 {
				assignment, _ := a.Assign(ctx, 1, "mentor-1", "coordinator-1", "")
				if err := a.Complete(ctx, assignment.ID, "coordinator-1"); err != nil {
					panic(err)
				}
				return assignment.ID
			},
			end: func(ctx context.Context, a MentorAllocator, id int64) error {
				return a.Complete(ctx, id, "coordinator-1")
			},
		},
		{
			name: "cancel a completed assignment fails",
			setup: func(ctx context.Context, a MentorAllocator) int64 {
				assignment, _ := a.Assign(ctx, 1, "mentor-1", "coordinator-1", "")
				if err := a.Complete(ctx, assignment.ID, "coordinator-1"); err != nil {
					panic(err)
				}
				return assignment.ID
			},
			end: func(ctx context.Context, a MentorAllocator, id int64) error {
				return a.Cancel(ctx, id, "coordinator-1")
			},
			wantErr: ErrInvalidTransition,
		},
		{
			name:  "missing assignment",
			setup: func(ctx context.Context, a MentorAllocator) int64 { return 42 },
			end: func(ctx context.Context, a MentorAllocator, id int64) error {
				return a.Complete(ctx, id, "coordinator-1")
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, allocator := newAllocatorFixture(3)
			ctx := context.Background()

			id := tt.setup(ctx, allocator)
			err := tt.end(ctx, allocator, id)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("end error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("end unexpected error: %v", err)
			}
		})
	}
}

func TestMentorAllocator_Assign_RollsBackOnAuditFailure(t *testing.T) {
	assignmentRepo := newMockAssignmentRepo()
	auditRepo := &mockAuditRepo{}
	logger := &mockLogger{}
	auditor := NewAuditRecorder(auditRepo, logger)

	// Transaction manager that reports failure without committing, the way
	// a real rollback would surface.
	txManager := &mockTxManager{
		withTransactionFunc: func(ctx context.Context, fn func(ctx context.Context) error) error {
			if err := fn(ctx); err != nil {
				return fmt.Errorf("tx rolled back: %w", err)
			}
			return nil
		},
	}

	allocator := NewMentorAllocator(assignmentRepo, auditor, txManager, 0, logger)

	_, err := allocator.Assign(context.Background(), 1, "mentor-1", "coordinator-1", "")
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Assign() with zero capacity error = %v, want %v", err, ErrCapacityExceeded)
	}
}
