package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// rolePermissions is the explicit catalog behind role checks. A role grants a
// fixed permission set; there is no per-member override.
var rolePermissions = map[MemberRole]map[Permission]struct{}{
	MemberRoleOwner: {
		PermissionWorkspaceManage: {},
		PermissionMembersManage:   {},
		PermissionLeadsRead:       {},
		PermissionLeadsWrite:      {},
		PermissionLeadsDelete:     {},
		PermissionEndpointsManage: {},
		PermissionBillingManage:   {},
		PermissionAuditRead:       {},
	},
	MemberRoleAdmin: {
		PermissionMembersManage:   {},
		PermissionLeadsRead:       {},
		PermissionLeadsWrite:      {},
		PermissionLeadsDelete:     {},
		PermissionEndpointsManage: {},
		PermissionAuditRead:       {},
	},
	MemberRoleMember: {
		PermissionLeadsRead:  {},
		PermissionLeadsWrite: {},
	},
	MemberRoleViewer: {
		PermissionLeadsRead: {},
	},
}

// RolePermissions returns the permission set a role grants, sorted.
func RolePermissions(role MemberRole) []Permission {
	granted, ok := rolePermissions[role]
	if !ok {
		return []Permission{}
	}
	out := make([]Permission, 0, len(granted))
	for permission := range granted {
		out = append(out, permission)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type RolePermissionEvaluator struct {
	MemberStore MemberStore
}

func NewRolePermissionEvaluator(memberStore MemberStore) *RolePermissionEvaluator {
	return &RolePermissionEvaluator{MemberStore: memberStore}
}

func (e *RolePermissionEvaluator) Evaluate(
	ctx context.Context,
	workspaceID string,
	userID string,
	permission Permission,
) (PermissionDecision, error) {
	if e == nil || e.MemberStore == nil {
		return PermissionDecision{}, fmt.Errorf("core: member store is required for permission evaluation")
	}
	if strings.TrimSpace(workspaceID) == "" {
		return PermissionDecision{}, fmt.Errorf("core: workspace id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return PermissionDecision{}, fmt.Errorf("core: user id is required")
	}
	if strings.TrimSpace(string(permission)) == "" {
		return PermissionDecision{}, fmt.Errorf("core: permission is required")
	}

	member, err := e.MemberStore.Get(ctx, workspaceID, userID)
	if err != nil {
		return PermissionDecision{
			Allowed:    false,
			Permission: permission,
			Reason:     "actor is not a workspace member",
		}, nil
	}
	if member.Status != MemberStatusActive {
		return PermissionDecision{
			Allowed:    false,
			Permission: permission,
			Role:       member.Role,
			Reason:     fmt.Sprintf("member status is %s", member.Status),
		}, nil
	}

	granted, ok := rolePermissions[member.Role]
	if !ok {
		return PermissionDecision{
			Allowed:    false,
			Permission: permission,
			Role:       member.Role,
			Reason:     "role has no permission catalog entry",
		}, nil
	}
	if _, allowed := granted[permission]; !allowed {
		return PermissionDecision{
			Allowed:    false,
			Permission: permission,
			Role:       member.Role,
			Reason:     fmt.Sprintf("role %s does not grant %s", member.Role, permission),
		}, nil
	}
	return PermissionDecision{
		Allowed:    true,
		Permission: permission,
		Role:       member.Role,
	}, nil
}

var _ PermissionEvaluator = (*RolePermissionEvaluator)(nil)
