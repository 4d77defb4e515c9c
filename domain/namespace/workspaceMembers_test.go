package namespace_test

import (
	"context"
	"partywork/account"
	"partywork/authority"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/persistence"
	"partywork/session"
	"partywork/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WorkspaceMembers", func() {
	var (
		testDatabase *testinfra.TestDatabase
		db           *gorm.DB
	)
	adminSession := func() *session.Session { return testinfra.BuildSession(10, authority.WorkspaceAdmin(100)) }

	findMember := func(workspaceId, memberId types.ID) *domain.WorkspaceMember {
		m := domain.WorkspaceMember{}
		if err := db.Where("workspace_id = ? AND member_id = ?", workspaceId, memberId).First(&m).Error; err != nil {
			return nil
		}
		return &m
	}

	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("partywork")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db = testDatabase.DS.GormDB(context.TODO())
		migrateNamespaceTables(db)
		saveUser(db, 10, "admin")
		saveUser(db, 20, "member")
		saveUser(db, 30, "outsider")
		saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin, 20: domain.WorkspaceRoleMember})
		namespace.QueryUserInfosFunc = account.QueryUserInfos
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("QueryWorkspaceMembers", func() {
		It("should list members with user details", func() {
			results, err := namespace.QueryWorkspaceMembers(&domain.WorkspaceMemberQuery{WorkspaceID: 100},
				testinfra.BuildSession(20, authority.WorkspaceMember(100)))
			Expect(err).To(BeNil())
			Expect(len(*results)).To(Equal(2))
			names := map[types.ID]string{}
			for _, r := range *results {
				names[r.MemberID] = r.MemberName
			}
			Expect(names).To(Equal(map[types.ID]string{10: "admin", 20: "member"}))
		})

		It("should be forbidden for outsiders", func() {
			_, err := namespace.QueryWorkspaceMembers(&domain.WorkspaceMemberQuery{WorkspaceID: 100}, testinfra.BuildSession(30))
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("CreateWorkspaceMember", func() {
		It("should add member by email and upsert role", func() {
			m, err := namespace.CreateWorkspaceMember(&domain.WorkspaceMemberCreation{WorkspaceID: 100, Email: "Outsider@example.com",
				Role: domain.WorkspaceRoleMember}, adminSession())
			Expect(err).To(BeNil())
			Expect(m.MemberID).To(Equal(types.ID(30)))
			Expect(findMember(100, 30).Role).To(Equal(domain.WorkspaceRoleMember))

			_, err = namespace.CreateWorkspaceMember(&domain.WorkspaceMemberCreation{WorkspaceID: 100, MemberID: 30,
				Role: domain.WorkspaceRoleAdmin}, adminSession())
			Expect(err).To(BeNil())
			Expect(findMember(100, 30).Role).To(Equal(domain.WorkspaceRoleAdmin))
		})

		It("should reject missing user or permission", func() {
			_, err := namespace.CreateWorkspaceMember(&domain.WorkspaceMemberCreation{WorkspaceID: 100, Role: domain.WorkspaceRoleMember}, adminSession())
			_, ok := err.(*bizerror.ErrBadParam)
			Expect(ok).To(BeTrue())

			_, err = namespace.CreateWorkspaceMember(&domain.WorkspaceMemberCreation{WorkspaceID: 100, MemberID: 999,
				Role: domain.WorkspaceRoleMember}, adminSession())
			Expect(err).To(Equal(gorm.ErrRecordNotFound))

			_, err = namespace.CreateWorkspaceMember(&domain.WorkspaceMemberCreation{WorkspaceID: 100, MemberID: 30,
				Role: domain.WorkspaceRoleMember}, testinfra.BuildSession(20, authority.WorkspaceMember(100)))
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("UpdateWorkspaceMember", func() {
		It("should keep the last admin", func() {
			err := namespace.UpdateWorkspaceMember(&domain.WorkspaceMemberUpdating{WorkspaceID: 100, MemberID: 10,
				Role: domain.WorkspaceRoleMember}, adminSession())
			Expect(err).To(Equal(bizerror.ErrLastWorkspaceAdmin))

			Expect(namespace.UpdateWorkspaceMember(&domain.WorkspaceMemberUpdating{WorkspaceID: 100, MemberID: 20,
				Role: domain.WorkspaceRoleAdmin}, adminSession())).To(BeNil())
			Expect(namespace.UpdateWorkspaceMember(&domain.WorkspaceMemberUpdating{WorkspaceID: 100, MemberID: 10,
				Role: domain.WorkspaceRoleMember}, adminSession())).To(BeNil())
			Expect(findMember(100, 10).Role).To(Equal(domain.WorkspaceRoleMember))
			Expect(findMember(100, 20).Role).To(Equal(domain.WorkspaceRoleAdmin))
		})
	})

	Describe("DeleteWorkspaceMember", func() {
		It("should remove project memberships and unassign open tasks", func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "p", LeadID: 10}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 20, Role: domain.ProjectRoleMember}).Error).To(BeNil())
			Expect(db.Save(&domain.Task{ID: 5000, ProjectID: 1000, Title: "open", Status: domain.TaskStatusTodo, AssigneeID: 20}).Error).To(BeNil())
			Expect(db.Save(&domain.Task{ID: 5001, ProjectID: 1000, Title: "done", Status: domain.TaskStatusDone, AssigneeID: 20}).Error).To(BeNil())

			Expect(namespace.DeleteWorkspaceMember(&domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 20}, adminSession())).To(BeNil())
			Expect(findMember(100, 20)).To(BeNil())

			var count int
			Expect(db.Model(&domain.ProjectMember{}).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())

			var tasks []domain.Task
			Expect(db.Order("id ASC").Find(&tasks).Error).To(BeNil())
			Expect(tasks[0].AssigneeID).To(BeZero())
			Expect(tasks[1].AssigneeID).To(Equal(types.ID(20)))
		})

		It("should refuse removing a project lead or the last admin", func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "p", LeadID: 20}).Error).To(BeNil())
			Expect(namespace.DeleteWorkspaceMember(&domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 20}, adminSession())).
				To(Equal(bizerror.ErrProjectLeadDelete))
			Expect(namespace.DeleteWorkspaceMember(&domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 10}, adminSession())).
				To(Equal(bizerror.ErrLastWorkspaceAdmin))
		})

		It("should let members leave but not remove others", func() {
			member := testinfra.BuildSession(20, authority.WorkspaceMember(100))
			Expect(namespace.DeleteWorkspaceMember(&domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 10}, member)).
				To(Equal(bizerror.ErrForbidden))
			Expect(namespace.DeleteWorkspaceMember(&domain.WorkspaceMemberDeletion{WorkspaceID: 100, MemberID: 20}, member)).To(BeNil())
			Expect(findMember(100, 20)).To(BeNil())
		})
	})

	Describe("sync", func() {
		It("should apply memberships of the identity provider", func() {
			Expect(namespace.SyncWorkspaceMember(context.TODO(), "org_100", "user_30", domain.WorkspaceRoleAdmin)).To(BeNil())
			Expect(findMember(100, 30).Role).To(Equal(domain.WorkspaceRoleAdmin))

			// the last admin rule does not apply
			Expect(namespace.SyncWorkspaceMember(context.TODO(), "org_100", "user_10", domain.WorkspaceRoleMember)).To(BeNil())
			Expect(namespace.SyncWorkspaceMember(context.TODO(), "org_100", "user_30", domain.WorkspaceRoleMember)).To(BeNil())
			Expect(findMember(100, 30).Role).To(Equal(domain.WorkspaceRoleMember))

			Expect(namespace.SyncWorkspaceMember(context.TODO(), "org_unknown", "user_30", domain.WorkspaceRoleMember)).
				To(Equal(bizerror.ErrNotFound))
			Expect(namespace.SyncWorkspaceMember(context.TODO(), "org_100", "user_unknown", domain.WorkspaceRoleMember)).
				To(Equal(bizerror.ErrNotFound))
		})

		It("should remove membership and clear project leads", func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "p", LeadID: 20}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 20, Role: domain.ProjectRoleLead}).Error).To(BeNil())

			Expect(namespace.DeleteWorkspaceMemberByExternalID(context.TODO(), "org_100", "user_20")).To(BeNil())
			Expect(findMember(100, 20)).To(BeNil())
			p := domain.Project{}
			Expect(db.Where("id = ?", 1000).First(&p).Error).To(BeNil())
			Expect(p.LeadID).To(BeZero())

			Expect(namespace.DeleteWorkspaceMemberByExternalID(context.TODO(), "org_100", "user_unknown")).To(BeNil())
		})
	})
})
