package namespace

import (
	"context"
	"errors"
	"fmt"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"regexp"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	slugPattern      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// ExternalOrganization is an organization of the identity provider.
type ExternalOrganization struct {
	ExternalID        string
	Name              string
	Slug              string
	ImageURL          string
	CreatorExternalID string
}

type workspaceCount struct {
	WorkspaceID types.ID
	Count       int
}

func QueryWorkspaces(s *session.Session) (*[]domain.WorkspaceDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	var workspaces []domain.Workspace
	q := db.Model(&domain.Workspace{})
	if !s.IsSystemAdmin() {
		ids := s.VisibleWorkspaces()
		if len(ids) == 0 {
			return &[]domain.WorkspaceDetail{}, nil
		}
		q = q.Where("id IN (?)", ids)
	}
	if err := q.Order("create_time ASC").Find(&workspaces).Error; err != nil {
		return nil, err
	}
	if len(workspaces) == 0 {
		return &[]domain.WorkspaceDetail{}, nil
	}

	ids := make([]types.ID, 0, len(workspaces))
	for _, w := range workspaces {
		ids = append(ids, w.ID)
	}
	memberCounts, err := countByWorkspace(db, &domain.WorkspaceMember{}, ids)
	if err != nil {
		return nil, err
	}
	projectCounts, err := countByWorkspace(db, &domain.Project{}, ids)
	if err != nil {
		return nil, err
	}

	results := make([]domain.WorkspaceDetail, 0, len(workspaces))
	for _, w := range workspaces {
		results = append(results, domain.WorkspaceDetail{Workspace: w, Role: sessionRole(w.ID, s),
			MemberCount: memberCounts[w.ID], ProjectCount: projectCounts[w.ID]})
	}
	return &results, nil
}

func CreateWorkspace(c *domain.WorkspaceCreation, s *session.Session) (*domain.Workspace, error) {
	if !s.IsSystemAdmin() {
		return nil, bizerror.ErrForbidden
	}
	slug := strings.ToLower(strings.TrimSpace(c.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, &bizerror.ErrBadParam{Cause: fmt.Errorf("invalid slug '%s'", c.Slug)}
	}

	now := common.Now()
	w := domain.Workspace{ID: idgen.NextID(), Name: c.Name, Slug: slug, Description: c.Description, ImageURL: c.ImageURL,
		OwnerID: s.Identity.ID, CreateTime: now, UpdateTime: now}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		taken, err := slugTaken(tx, slug)
		if err != nil {
			return err
		}
		if taken {
			return bizerror.ErrWorkspaceSlugTaken
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		m := domain.WorkspaceMember{WorkspaceID: w.ID, MemberID: s.Identity.ID, Role: domain.WorkspaceRoleAdmin, CreateTime: now}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		ev, err := event.CreateEvent(workspaceSource(&w), event.EventCategoryCreated, nil, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll(records)
	return &w, nil
}

func DetailWorkspace(id types.ID, s *session.Session) (*domain.WorkspaceDetail, error) {
	if !s.IsWorkspaceMember(id) {
		return nil, bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	w, err := FindWorkspace(db, id)
	if err != nil {
		return nil, err
	}
	detail := domain.WorkspaceDetail{Workspace: *w, Role: sessionRole(id, s)}
	if err := db.Model(&domain.WorkspaceMember{}).Where("workspace_id = ?", id).Count(&detail.MemberCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Project{}).Where("workspace_id = ?", id).Count(&detail.ProjectCount).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

func UpdateWorkspace(id types.ID, u *domain.WorkspaceUpdating, s *session.Session) error {
	if !s.IsWorkspaceAdmin(id) {
		return bizerror.ErrForbidden
	}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		w, err := FindWorkspace(tx, id)
		if err != nil {
			return err
		}
		var changes []event.UpdatedProperty
		if w.Name != u.Name {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Name", PropertyDesc: "Name", OldValue: w.Name, NewValue: u.Name})
		}
		if w.Description != u.Description {
			changes = append(changes, event.UpdatedProperty{PropertyName: "Description", PropertyDesc: "Description"})
		}
		if w.ImageURL != u.ImageURL {
			changes = append(changes, event.UpdatedProperty{PropertyName: "ImageURL", PropertyDesc: "Image", OldValue: w.ImageURL, NewValue: u.ImageURL})
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&domain.Workspace{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name": u.Name, "description": u.Description, "image_url": u.ImageURL, "update_time": common.Now(),
		}).Error; err != nil {
			return err
		}
		w.Name = u.Name
		ev, err := event.CreateEvent(workspaceSource(w), event.EventCategoryPropertyUpdated, changes, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeAll(records)
	return nil
}

func DeleteWorkspace(id types.ID, s *session.Session) error {
	if !s.IsSystemAdmin() {
		return bizerror.ErrForbidden
	}
	var records []*event.EventRecord
	var covers []string
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		w, err := FindWorkspace(tx, id)
		if err != nil {
			return err
		}
		covers, err = purgeWorkspace(tx, w.ID)
		if err != nil {
			return err
		}
		ev, err := event.CreateEvent(workspaceSource(w), event.EventCategoryDeleted, nil, nil, &s.Identity, tx)
		if err != nil {
			return err
		}
		records = append(records, ev)
		return nil
	})
	if err != nil {
		return err
	}
	deleteCovers(s.Context, covers)
	event.InvokeAll(records)
	return nil
}

// SyncWorkspace creates or refreshes the workspace mirroring an organization of the identity provider.
func SyncWorkspace(ctx context.Context, org *ExternalOrganization) (*domain.Workspace, error) {
	if org.ExternalID == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("external id of organization is empty")}
	}

	var w domain.Workspace
	err := persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		now := common.Now()
		err := tx.Where(&domain.Workspace{ExternalID: org.ExternalID}).First(&w).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			return tx.Model(&domain.Workspace{}).Where("id = ?", w.ID).Updates(map[string]interface{}{
				"name": org.Name, "image_url": org.ImageURL, "update_time": now,
			}).Error
		}

		slug, err := uniqueSlug(tx, org.Slug, org.Name)
		if err != nil {
			return err
		}
		w = domain.Workspace{ID: idgen.NextID(), ExternalID: org.ExternalID, Name: org.Name, Slug: slug,
			ImageURL: org.ImageURL, CreateTime: now, UpdateTime: now}
		if org.CreatorExternalID != "" {
			creator, err := account.FindUserByExternalID(org.CreatorExternalID, tx)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if creator != nil {
				w.OwnerID = creator.ID
			}
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}
		if w.OwnerID != 0 {
			m := domain.WorkspaceMember{WorkspaceID: w.ID, MemberID: w.OwnerID, Role: domain.WorkspaceRoleAdmin, CreateTime: now}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.Name, w.ImageURL = org.Name, org.ImageURL
	return &w, nil
}

// DeleteWorkspaceByExternalID removes the workspace of an organization deleted at the identity provider.
func DeleteWorkspaceByExternalID(ctx context.Context, externalId string) error {
	if externalId == "" {
		return nil
	}
	var covers []string
	err := persistence.ActiveDataSourceManager.GormDB(ctx).Transaction(func(tx *gorm.DB) error {
		w := domain.Workspace{}
		if err := tx.Where("external_id = ?", externalId).First(&w).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		var err error
		covers, err = purgeWorkspace(tx, w.ID)
		return err
	})
	if err != nil {
		return err
	}
	deleteCovers(ctx, covers)
	return nil
}

// Slugify lowercases name and joins its alphanumeric runs with '-'.
func Slugify(name string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "-")
	}
	if slug == "" {
		return "workspace"
	}
	return slug
}

func uniqueSlug(tx *gorm.DB, slug, name string) (string, error) {
	base := strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(base) {
		base = Slugify(name)
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := slugTaken(tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func slugTaken(tx *gorm.DB, slug string) (bool, error) {
	var count int
	if err := tx.Model(&domain.Workspace{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// purgeWorkspace deletes the workspace with its members and projects, returning the cover keys to drop.
func purgeWorkspace(tx *gorm.DB, workspaceId types.ID) ([]string, error) {
	var projects []domain.Project
	if err := tx.Where("workspace_id = ?", workspaceId).Find(&projects).Error; err != nil {
		return nil, err
	}
	var covers []string
	for i := range projects {
		if err := purgeProject(tx, projects[i].ID); err != nil {
			return nil, err
		}
		if projects[i].CoverKey != "" {
			covers = append(covers, projects[i].CoverKey)
		}
	}
	if err := tx.Where("workspace_id = ?", workspaceId).Delete(&domain.WorkspaceMember{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id = ?", workspaceId).Delete(&domain.Workspace{}).Error; err != nil {
		return nil, err
	}
	return covers, nil
}

func countByWorkspace(db *gorm.DB, model interface{}, ids []types.ID) (map[types.ID]int, error) {
	var rows []workspaceCount
	if err := db.Model(model).Select("workspace_id, COUNT(*) AS count").Where("workspace_id IN (?)", ids).
		Group("workspace_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]int{}
	for _, r := range rows {
		result[r.WorkspaceID] = r.Count
	}
	return result, nil
}

func sessionRole(workspaceId types.ID, s *session.Session) domain.WorkspaceRole {
	if s.IsWorkspaceAdmin(workspaceId) {
		return domain.WorkspaceRoleAdmin
	}
	if s.IsWorkspaceMember(workspaceId) {
		return domain.WorkspaceRoleMember
	}
	return ""
}

func workspaceSource(w *domain.Workspace) event.Source {
	return event.Source{SourceId: w.ID, SourceType: event.SourceWorkspace, SourceDesc: w.Name, WorkspaceId: w.ID}
}
