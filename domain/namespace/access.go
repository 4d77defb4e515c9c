package namespace

import (
	"partywork/bizerror"
	"partywork/domain"
	"partywork/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func FindWorkspace(tx *gorm.DB, id types.ID) (*domain.Workspace, error) {
	ws := domain.Workspace{}
	if err := tx.Where(&domain.Workspace{ID: id}).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

func FindProject(tx *gorm.DB, id types.ID) (*domain.Project, error) {
	p := domain.Project{}
	if err := tx.Where(&domain.Project{ID: id}).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CanViewProject: system admin, workspace admin, project member, or any workspace member for public projects.
func CanViewProject(p *domain.Project, s *session.Session) bool {
	if s.IsWorkspaceAdmin(p.WorkspaceID) || s.IsProjectMember(p.ID) || p.LeadID == s.Identity.ID {
		return true
	}
	return p.Public && s.IsWorkspaceMember(p.WorkspaceID)
}

// CanManageProject: the project lead or an admin of its workspace.
func CanManageProject(p *domain.Project, s *session.Session) bool {
	return p.LeadID == s.Identity.ID || s.IsWorkspaceAdmin(p.WorkspaceID)
}

func CanContributeProject(p *domain.Project, s *session.Session) bool {
	return CanManageProject(p, s) || s.IsProjectMember(p.ID)
}

func LoadViewableProject(tx *gorm.DB, id types.ID, s *session.Session) (*domain.Project, error) {
	p, err := FindProject(tx, id)
	if err != nil {
		return nil, err
	}
	if !CanViewProject(p, s) {
		return nil, bizerror.ErrForbidden
	}
	return p, nil
}

func LoadManageableProject(tx *gorm.DB, id types.ID, s *session.Session) (*domain.Project, error) {
	p, err := FindProject(tx, id)
	if err != nil {
		return nil, err
	}
	if !CanManageProject(p, s) {
		return nil, bizerror.ErrForbidden
	}
	return p, nil
}

// LoadContributableProject loads a project the session works on: lead, workspace admin or member.
func LoadContributableProject(tx *gorm.DB, id types.ID, s *session.Session) (*domain.Project, error) {
	p, err := FindProject(tx, id)
	if err != nil {
		return nil, err
	}
	if !CanContributeProject(p, s) {
		return nil, bizerror.ErrForbidden
	}
	return p, nil
}

func IsWorkspaceMember(tx *gorm.DB, workspaceId, uid types.ID) (bool, error) {
	var count int
	if err := tx.Model(&domain.WorkspaceMember{}).Where("workspace_id = ? AND member_id = ?", workspaceId, uid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func IsProjectMember(tx *gorm.DB, projectId, uid types.ID) (bool, error) {
	var count int
	if err := tx.Model(&domain.ProjectMember{}).Where("project_id = ? AND member_id = ?", projectId, uid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ViewableProjectsScope restricts a project query to the projects the session can view.
func ViewableProjectsScope(s *session.Session) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.IsSystemAdmin() {
			return db
		}

		var adminWorkspaces, memberWorkspaces []types.ID
		for _, id := range s.VisibleWorkspaces() {
			if s.IsWorkspaceAdmin(id) {
				adminWorkspaces = append(adminWorkspaces, id)
			} else {
				memberWorkspaces = append(memberWorkspaces, id)
			}
		}
		memberProjects := s.MemberProjects()

		cond := "lead_id = ?"
		args := []interface{}{s.Identity.ID}
		if len(adminWorkspaces) > 0 {
			cond += " OR workspace_id IN (?)"
			args = append(args, adminWorkspaces)
		}
		if len(memberProjects) > 0 {
			cond += " OR id IN (?)"
			args = append(args, memberProjects)
		}
		if len(memberWorkspaces) > 0 {
			cond += " OR (public = ? AND workspace_id IN (?))"
			args = append(args, true, memberWorkspaces)
		}
		return db.Where(cond, args...)
	}
}

// ViewableProjectIDs returns ids of viewable projects, all is true for system admins.
func ViewableProjectIDs(tx *gorm.DB, s *session.Session) (ids []types.ID, all bool, err error) {
	if s.IsSystemAdmin() {
		return nil, true, nil
	}
	ids = []types.ID{}
	if err := tx.Model(&domain.Project{}).Scopes(ViewableProjectsScope(s)).Pluck("id", &ids).Error; err != nil {
		return nil, false, err
	}
	return ids, false, nil
}
