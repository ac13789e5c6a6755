package entity

// Status constants for InternshipRequest
const (
	StatusSubmitted      = "SUBMITTED"
	StatusUnderReview    = "UNDER_REVIEW"
	StatusMentorAssigned = "MENTOR_ASSIGNED"
	StatusApproved       = "APPROVED"
	StatusCompleted      = "COMPLETED"
	StatusRejected       = "REJECTED"
)

// Approval decision constants
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// Mentor assignment status constants
const (
	AssignmentActive    = "ACTIVE"
	AssignmentCompleted = "COMPLETED"
	AssignmentCancelled = "CANCELLED"
)

// Forwarded batch status constants
const (
	BatchPendingLNDReview = "PENDING_LND_REVIEW"
	BatchApprovedByLND    = "APPROVED_BY_LND"
	BatchRejectedByLND    = "REJECTED_BY_LND"
)

// Role constants
const (
	RoleCoordinator    = "coordinator"
	RoleLNDHead        = "lnd_head"
	RoleDepartmentHead = "department_head"
	RoleMentor         = "mentor"
	RoleAdmin          = "admin"
)

// Approval levels. Levels are fixed by policy, never taken from user input.
const (
	LevelLNDHead        = 1
	LevelDepartmentHead = 2
)

// Notification priority constants
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
)

// Audit target type constants
const (
	TargetRequest    = "request"
	TargetAssignment = "assignment"
	TargetBatch      = "batch"
)
