package session

import (
	"context"
	"partywork/authority"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Session struct {
	Token          string                   `json:"token"`
	Identity       Identity                 `json:"identity"`
	Perms          authority.Permissions    `json:"perms"`
	WorkspaceRoles authority.WorkspaceRoles `json:"workspaceRoles"`
	ProjectRoles   authority.ProjectRoles   `json:"projectRoles"`

	SigningTime time.Time       `json:"-"`
	Context     context.Context `json:"-"`
}

type Identity struct {
	ID         types.ID `json:"id"`
	ExternalID string   `json:"externalId"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
}

// Clone copies the session, slices included, without the request context.
func (s *Session) Clone() Session {
	c := Session{Token: s.Token, Identity: s.Identity, SigningTime: s.SigningTime}
	if s.Perms != nil {
		c.Perms = append(authority.Permissions{}, s.Perms...)
	}
	if s.WorkspaceRoles != nil {
		c.WorkspaceRoles = append(authority.WorkspaceRoles{}, s.WorkspaceRoles...)
	}
	if s.ProjectRoles != nil {
		c.ProjectRoles = append(authority.ProjectRoles{}, s.ProjectRoles...)
	}
	return c
}

func (s *Session) IsSystemAdmin() bool {
	return s.Perms.HasRole(authority.SystemAdmin)
}

func (s *Session) IsWorkspaceAdmin(workspaceId types.ID) bool {
	return s.IsSystemAdmin() || s.Perms.HasRole(authority.WorkspaceAdmin(workspaceId))
}

func (s *Session) IsWorkspaceMember(workspaceId types.ID) bool {
	return s.IsWorkspaceAdmin(workspaceId) || s.Perms.HasRole(authority.WorkspaceMember(workspaceId))
}

func (s *Session) IsProjectLead(projectId types.ID) bool {
	return s.Perms.HasRole(authority.ProjectLead(projectId))
}

func (s *Session) IsProjectMember(projectId types.ID) bool {
	return s.IsProjectLead(projectId) || s.Perms.HasRole(authority.ProjectMember(projectId))
}

// VisibleWorkspaces parses the ids of workspaces the session belongs to from Perms
func (s *Session) VisibleWorkspaces() []types.ID {
	ids := s.Perms.IDsWithPrefix(authority.WorkspaceAdminPrefix)
	for _, id := range s.Perms.IDsWithPrefix(authority.WorkspaceMemberPrefix) {
		if !containsID(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// MemberProjects parses the ids of projects the session is a member of from Perms
func (s *Session) MemberProjects() []types.ID {
	ids := s.Perms.IDsWithPrefix(authority.ProjectLeadPrefix)
	for _, id := range s.Perms.IDsWithPrefix(authority.ProjectMemberPrefix) {
		if !containsID(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func containsID(ids []types.ID, id types.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
