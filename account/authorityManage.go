package account

import (
	"context"
	"partywork/authority"
	"partywork/domain"
	"partywork/persistence"

	"github.com/fundwit/go-commons/types"
)

var (
	rolePermissions = map[string][]string{
		SystemAdminRole: {authority.SystemAdmin},
	}
)

var (
	LoadPermFunc = LoadPerms
)

func LoadPermFuncReset() {
	LoadPermFunc = LoadPerms
}

// LoadPerms derives permissions from the system role bindings and the workspace and project memberships of uid.
func LoadPerms(uid types.ID) (authority.Permissions, authority.WorkspaceRoles, authority.ProjectRoles, error) {
	perms := authority.Permissions{}
	workspaceRoles := authority.WorkspaceRoles{}
	projectRoles := authority.ProjectRoles{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())

	// system perms
	var systemRoles []string
	if err := db.Model(&UserRoleBinding{}).Where(&UserRoleBinding{UserID: uid}).Pluck("role_id", &systemRoles).Error; err != nil {
		return nil, nil, nil, err
	}
	systemAdmin := false
	for _, role := range systemRoles {
		for _, perm := range rolePermissions[role] {
			if !perms.HasRole(perm) {
				perms = append(perms, perm)
			}
			if perm == authority.SystemAdmin {
				systemAdmin = true
			}
		}
	}

	// workspace perms, system admins see every workspace as admin
	var memberships []domain.WorkspaceMember
	if err := db.Where(&domain.WorkspaceMember{MemberID: uid}).Find(&memberships).Error; err != nil {
		return nil, nil, nil, err
	}
	roleOfWorkspace := map[types.ID]domain.WorkspaceRole{}
	for _, m := range memberships {
		roleOfWorkspace[m.WorkspaceID] = m.Role
	}

	var workspaces []domain.Workspace
	wsQuery := db.Model(&domain.Workspace{}).Order("create_time ASC")
	if !systemAdmin {
		ids := make([]types.ID, 0, len(roleOfWorkspace))
		for id := range roleOfWorkspace {
			ids = append(ids, id)
		}
		wsQuery = wsQuery.Where("id IN (?)", ids)
	}
	if systemAdmin || len(roleOfWorkspace) > 0 {
		if err := wsQuery.Find(&workspaces).Error; err != nil {
			return nil, nil, nil, err
		}
	}
	for _, ws := range workspaces {
		role, found := roleOfWorkspace[ws.ID]
		if systemAdmin {
			role = domain.WorkspaceRoleAdmin
		} else if !found {
			continue
		}
		if role == domain.WorkspaceRoleAdmin {
			perms = append(perms, authority.WorkspaceAdmin(ws.ID))
		}
		perms = append(perms, authority.WorkspaceMember(ws.ID))
		workspaceRoles = append(workspaceRoles, domain.WorkspaceRoleBinding{
			WorkspaceID: ws.ID, WorkspaceName: ws.Name, WorkspaceSlug: ws.Slug, Role: role})
	}

	// project perms
	var projectMemberships []domain.ProjectMember
	if err := db.Where(&domain.ProjectMember{MemberID: uid}).Order("create_time ASC").Find(&projectMemberships).Error; err != nil {
		return nil, nil, nil, err
	}
	if len(projectMemberships) > 0 {
		ids := make([]types.ID, 0, len(projectMemberships))
		for _, pm := range projectMemberships {
			ids = append(ids, pm.ProjectID)
		}
		var projects []domain.Project
		if err := db.Where("id IN (?)", ids).Find(&projects).Error; err != nil {
			return nil, nil, nil, err
		}
		projectMap := map[types.ID]domain.Project{}
		for _, p := range projects {
			projectMap[p.ID] = p
		}

		for _, pm := range projectMemberships {
			project, found := projectMap[pm.ProjectID]
			if !found {
				continue
			}
			if pm.Role == domain.ProjectRoleLead {
				perms = append(perms, authority.ProjectLead(pm.ProjectID))
			} else {
				perms = append(perms, authority.ProjectMember(pm.ProjectID))
			}
			projectRoles = append(projectRoles, domain.ProjectRoleBinding{
				ProjectID: project.ID, ProjectName: project.Name, WorkspaceID: project.WorkspaceID, Role: pm.Role})
		}
	}

	return perms, workspaceRoles, projectRoles, nil
}
