package task

import (
	"errors"
	"partywork/account"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/event"
	"partywork/idgen"
	"partywork/persistence"
	"partywork/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	QueryCommentsFunc  = QueryComments
	CreateCommentFunc  = CreateComment
	DeleteCommentFunc  = DeleteComment
	QueryUserInfosFunc = account.QueryUserInfos
)

func QueryComments(q *domain.CommentQuery, s *session.Session) (*[]domain.CommentDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	t, err := FindTask(db, q.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := namespace.LoadViewableProject(db, t.ProjectID, s); err != nil {
		return nil, err
	}

	var comments []domain.Comment
	if err := db.Where("task_id = ?", t.ID).Order("create_time ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	var authorIds []types.ID
	for _, c := range comments {
		authorIds = append(authorIds, c.AuthorID)
	}
	authors, err := QueryUserInfosFunc(authorIds)
	if err != nil {
		return nil, err
	}

	details := []domain.CommentDetail{}
	for _, c := range comments {
		detail := domain.CommentDetail{Comment: c, AuthorName: "Unknown"}
		if info, found := authors[c.AuthorID]; found {
			detail.AuthorName, detail.AuthorImageURL = info.DisplayName(), info.ImageURL
		}
		details = append(details, detail)
	}
	return &details, nil
}

// CreateComment is open to workspace members who can view the task.
func CreateComment(c *domain.CommentCreation, s *session.Session) (*domain.Comment, error) {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("comment content is empty")}
	}

	var comment *domain.Comment
	var ev *event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		t, err := FindTask(tx, c.TaskID)
		if err != nil {
			return err
		}
		p, err := namespace.LoadViewableProject(tx, t.ProjectID, s)
		if err != nil {
			return err
		}
		if !s.IsWorkspaceMember(p.WorkspaceID) {
			return bizerror.ErrForbidden
		}

		comment = &domain.Comment{ID: idgen.NextID(), TaskID: t.ID, ProjectID: p.ID, AuthorID: s.Identity.ID,
			Content: content, CreateTime: common.Now()}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		ev, err = CreateCommentCreatedEvent(comment, t, p, &s.Identity, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	event.InvokeAll([]*event.EventRecord{ev})
	return comment, nil
}

// DeleteComment is allowed to the author, the project lead and workspace admins.
func DeleteComment(id types.ID, s *session.Session) error {
	return persistence.ActiveDataSourceManager.GormDB(s.Context).Transaction(func(tx *gorm.DB) error {
		comment := domain.Comment{}
		if err := tx.Where(&domain.Comment{ID: id}).First(&comment).Error; err != nil {
			return err
		}
		if comment.AuthorID != s.Identity.ID {
			p, err := namespace.FindProject(tx, comment.ProjectID)
			if err != nil {
				return err
			}
			if !namespace.CanManageProject(p, s) {
				return bizerror.ErrForbidden
			}
		}
		return tx.Where("id = ?", id).Delete(&domain.Comment{}).Error
	})
}
