package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/traineedesk/internship-workflow/internal/application/port"
	"github.com/traineedesk/internship-workflow/internal/domain/entity"
)

// In-memory mocks shared by the service tests. They keep real state so a
// test can drive a request through several operations, and expose override
// funcs for error injection.

type mockRequestRepo struct {
	mu       sync.Mutex
	nextID   int64
	requests map[int64]*entity.InternshipRequest

	createFunc func(ctx context.Context, request *entity.InternshipRequest) error
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[int64]*entity.InternshipRequest)}
}

func (m *mockRequestRepo) Create(ctx context.Context, request *entity.InternshipRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, request)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	request.ID = m.nextID
	copied := *request
	m.requests[request.ID] = &copied
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.InternshipRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (m *mockRequestRepo) List(ctx context.Context, limit, offset int) ([]*entity.InternshipRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*entity.InternshipRequest, 0, len(m.requests))
	for _, r := range m.requests {
		copied := *r
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockRequestRepo) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok || request.Status != fromStatus {
		return false, nil
	}
	request.Status = toStatus
	request.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockRequestRepo) seed(request *entity.InternshipRequest) *entity.InternshipRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	request.ID = m.nextID
	copied := *request
	m.requests[request.ID] = &copied
	return request
}

type mockApprovalRepo struct {
	mu        sync.Mutex
	approvals map[string]*entity.Approval
	order     []string

	upsertFunc func(ctx context.Context, approval *entity.Approval) error
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{approvals: make(map[string]*entity.Approval)}
}

func approvalKey(a *entity.Approval) string {
	return fmt.Sprintf("%d/%s/%d", a.RequestID, a.ApproverID, a.Level)
}

func (m *mockApprovalRepo) Upsert(ctx context.Context, approval *entity.Approval) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, approval)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := approvalKey(approval)
	if _, exists := m.approvals[key]; !exists {
		m.order = append(m.order, key)
		approval.ID = int64(len(m.order))
	} else {
		approval.ID = m.approvals[key].ID
	}
	copied := *approval
	m.approvals[key] = &copied
	return nil
}

func (m *mockApprovalRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Approval
	for _, key := range m.order {
		a := m.approvals[key]
		if a.RequestID == requestID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

type mockAssignmentRepo struct {
	mu          sync.Mutex
	nextID      int64
	assignments map[int64]*entity.MentorAssignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[int64]*entity.MentorAssignment)}
}

func (m *mockAssignmentRepo) CreateIfCapacity(ctx context.Context, assignment *entity.MentorAssignment, capacity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := 0
	for _, a := range m.assignments {
		if a.MentorID == assignment.MentorID && a.Status == entity.AssignmentActive {
			active++
		}
	}
	if active >= capacity {
		return false, nil
	}
	m.nextID++
	assignment.ID = m.nextID
	copied := *assignment
	m.assignments[assignment.ID] = &copied
	return true, nil
}

func (m *mockAssignmentRepo) GetByID(ctx context.Context, id int64) (*entity.MentorAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *mockAssignmentRepo) GetActiveByRequestID(ctx context.Context, requestID int64) (*entity.MentorAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.RequestID == requestID && a.Status == entity.AssignmentActive {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.MentorAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.MentorAssignment
	for _, a := range m.assignments {
		if a.RequestID == requestID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) CountActiveByMentor(ctx context.Context, mentorID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.assignments {
		if a.MentorID == mentorID && a.Status == entity.AssignmentActive {
			count++
		}
	}
	return count, nil
}

func (m *mockAssignmentRepo) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus string, endedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || a.Status != fromStatus {
		return false, nil
	}
	a.Status = toStatus
	a.EndedAt = &endedAt
	a.UpdatedAt = endedAt
	return true, nil
}

type mockBatchRepo struct {
	mu      sync.Mutex
	nextID  int64
	batches map[int64]*entity.ForwardedBatch
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: make(map[int64]*entity.ForwardedBatch)}
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *entity.ForwardedBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	batch.ID = m.nextID
	for i := range batch.Applications {
		batch.Applications[i].ID = int64(i + 1)
		batch.Applications[i].BatchID = batch.ID
	}
	copied := *batch
	copied.Applications = append([]entity.ApplicationSnapshot(nil), batch.Applications...)
	m.batches[batch.ID] = &copied
	return nil
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id int64) (*entity.ForwardedBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[id]
	if !ok {
		return nil, nil
	}
	copied := *batch
	copied.Applications = append([]entity.ApplicationSnapshot(nil), batch.Applications...)
	return &copied, nil
}

func (m *mockBatchRepo) UpdateStatus(ctx context.Context, id int64, fromStatus, toStatus, reviewedBy string, reviewedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch, ok := m.batches[id]
	if !ok || batch.Status != fromStatus {
		return false, nil
	}
	batch.Status = toStatus
	batch.ReviewedBy = reviewedBy
	batch.ReviewedAt = &reviewedAt
	return true, nil
}

type mockNotificationRepo struct {
	mu            sync.Mutex
	notifications []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	notification.ID = int64(len(m.notifications) + 1)
	copied := *notification
	m.notifications = append(m.notifications, &copied)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		copied := *n
		result = append(result, &copied)
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", id)
}

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*entity.AuditEntry
}

func (m *mockAuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockAuditRepo) ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.TargetType == targetType && e.TargetID == targetID {
			copied := *e
			result = append(result, &copied)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *mockAuditRepo) countByAction(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, e := range m.entries {
		if e.Action == action {
			count++
		}
	}
	return count
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockIdentityProvider struct {
	users map[string]*port.Identity
}

func (m *mockIdentityProvider) Resolve(ctx context.Context, userID string) (*port.Identity, error) {
	identity, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return identity, nil
}

// defaultIdentities covers the roles the tests exercise.
func defaultIdentities() *mockIdentityProvider {
	return &mockIdentityProvider{users: map[string]*port.Identity{
		"coordinator-1": {UserID: "coordinator-1", Role: entity.RoleCoordinator, Department: "Engineering"},
		"lnd-head-1":    {UserID: "lnd-head-1", Role: entity.RoleLNDHead, Department: "L&D"},
		"dept-head-1":   {UserID: "dept-head-1", Role: entity.RoleDepartmentHead, Department: "Engineering"},
		"mentor-1":      {UserID: "mentor-1", Role: entity.RoleMentor, Department: "Engineering"},
		"mentor-2":      {UserID: "mentor-2", Role: entity.RoleMentor, Department: "Engineering"},
		"admin-1":       {UserID: "admin-1", Role: entity.RoleAdmin, Department: "IT"},
	}}
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []string
	errFn func(userID string) error
}

func (m *mockNotifier) Notify(ctx context.Context, userID, title, message, priority string) error {
	if m.errFn != nil {
		if err := m.errFn(userID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, userID)
	return nil
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
