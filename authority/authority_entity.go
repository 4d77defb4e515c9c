package authority

import (
	"partywork/domain"
	"strings"

	"github.com/fundwit/go-commons/types"
)

const (
	SystemAdmin = "system:admin"

	WorkspaceAdminPrefix  = "workspace-admin"
	WorkspaceMemberPrefix = "workspace-member"
	ProjectLeadPrefix     = "project-lead"
	ProjectMemberPrefix   = "project-member"
)

func WorkspaceAdmin(workspaceId types.ID) string {
	return WorkspaceAdminPrefix + "_" + workspaceId.String()
}

func WorkspaceMember(workspaceId types.ID) string {
	return WorkspaceMemberPrefix + "_" + workspaceId.String()
}

func ProjectLead(projectId types.ID) string {
	return ProjectLeadPrefix + "_" + projectId.String()
}

func ProjectMember(projectId types.ID) string {
	return ProjectMemberPrefix + "_" + projectId.String()
}

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasGlobalViewRole() bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), "system:") {
			return true
		}
	}
	return false
}

func (c Permissions) HasRolePrefix(prefix string) bool {
	for _, v := range c {
		if strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func (c Permissions) HasRoleSuffix(suffix string) bool {
	for _, v := range c {
		if strings.HasSuffix(strings.ToLower(v), strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// IDsWithPrefix parses the scoped ids of all permissions like "<prefix>_<id>".
func (c Permissions) IDsWithPrefix(prefix string) []types.ID {
	ids := []types.ID{}
	for _, v := range c {
		idx := strings.LastIndex(v, "_")
		if idx <= 0 || !strings.EqualFold(v[:idx], prefix) {
			continue
		}
		id, err := types.ParseID(v[idx+1:])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

type WorkspaceRoles []domain.WorkspaceRoleBinding

func (c WorkspaceRoles) HasWorkspace(workspaceId types.ID) bool {
	for _, v := range c {
		if v.WorkspaceID == workspaceId {
			return true
		}
	}
	return false
}

type ProjectRoles []domain.ProjectRoleBinding

func (c ProjectRoles) HasProject(projectId types.ID) bool {
	for _, v := range c {
		if v.ProjectID == projectId {
			return true
		}
	}
	return false
}
