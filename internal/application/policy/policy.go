// Package policy holds the single permission table consulted once per
// operation. It replaces per-endpoint role-string comparisons: every
// authorization question is answered by Allowed or one of the role helpers.
package policy

import "github.com/traineedesk/internship-workflow/internal/domain/entity"

// Action identifies a client-facing workflow operation.
type Action string

const (
	ActionSubmit          Action = "submit_request"
	ActionDecide          Action = "decide"
	ActionAssignMentor    Action = "assign_mentor"
	ActionCompleteRequest Action = "complete_request"
	ActionForwardBatch    Action = "forward_batch"
	ActionReviewBatch     Action = "review_batch"
)

// levelRoles maps an approval level to the role authorized to decide it.
// Levels are fixed by policy: level 1 is the L&D head, level 2 the
// department head.
var levelRoles = map[int]string{
	entity.LevelLNDHead:        entity.RoleLNDHead,
	entity.LevelDepartmentHead: entity.RoleDepartmentHead,
}

// rules maps an action to the roles allowed to perform it. Decisions are
// additionally level-scoped through levelRoles.
var rules = map[Action]map[string]bool{
	ActionSubmit: {
		entity.RoleCoordinator: true,
		entity.RoleAdmin:       true,
	},
	ActionDecide: {
		entity.RoleLNDHead:        true,
		entity.RoleDepartmentHead: true,
		entity.RoleAdmin:          true,
	},
	ActionAssignMentor: {
		entity.RoleCoordinator: true,
		entity.RoleLNDHead:     true,
		entity.RoleAdmin:       true,
	},
	ActionCompleteRequest: {
		entity.RoleCoordinator: true,
		entity.RoleMentor:      true,
		entity.RoleAdmin:       true,
	},
	ActionForwardBatch: {
		entity.RoleCoordinator: true,
		entity.RoleAdmin:       true,
	},
	ActionReviewBatch: {
		entity.RoleLNDHead: true,
	},
}

// Allowed reports whether the role may perform the action. For ActionDecide
// the level must match the role's approval level; admin may decide any
// level. Pass level 0 for actions that are not level-scoped.
func Allowed(role string, action Action, level int) bool {
	allowed, ok := rules[action]
	if !ok || !allowed[role] {
		return false
	}

	if action == ActionDecide && role != entity.RoleAdmin {
		return levelRoles[level] == role
	}

	return true
}

// KnownLevel reports whether the level is one of the fixed approval levels.
func KnownLevel(level int) bool {
	_, ok := levelRoles[level]
	return ok
}

// RoleForLevel returns the role authorized for the given approval level.
func RoleForLevel(level int) string {
	return levelRoles[level]
}

// CanMentor reports whether the role grants mentoring capability.
func CanMentor(role string) bool {
	return role == entity.RoleMentor
}

// CanReceiveBatch reports whether the role may receive a forwarded batch.
func CanReceiveBatch(role string) bool {
	return role == entity.RoleLNDHead
}
