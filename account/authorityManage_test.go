package account_test

import (
	"context"
	"partywork/account"
	"partywork/authority"
	"partywork/domain"
	"partywork/persistence"
	"partywork/testinfra"
	"time"

	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("AuthorityManage", func() {
	var (
		testDatabase *testinfra.TestDatabase
		db           *gorm.DB
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("partywork")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db = testDatabase.DS.GormDB(context.TODO())
		Expect(db.AutoMigrate(&account.User{}, &account.UserRoleBinding{}, &domain.Workspace{}, &domain.WorkspaceMember{},
			&domain.Project{}, &domain.ProjectMember{}).Error).To(BeNil())
		account.LoadPermFuncReset()

		now := time.Now()
		Expect(db.Create(&domain.Workspace{ID: 1, Name: "ws1", Slug: "ws1", CreateTime: now, UpdateTime: now}).Error).To(BeNil())
		Expect(db.Create(&domain.Workspace{ID: 2, Name: "ws2", Slug: "ws2", CreateTime: now.Add(time.Second), UpdateTime: now}).Error).To(BeNil())
		Expect(db.Create(&domain.Project{ID: 10, WorkspaceID: 1, Name: "p10", CreateTime: now, UpdateTime: now}).Error).To(BeNil())
		Expect(db.Create(&domain.Project{ID: 20, WorkspaceID: 2, Name: "p20", CreateTime: now, UpdateTime: now}).Error).To(BeNil())
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("LoadPerms", func() {
		It("should return membership permissions for normal user", func() {
			now := time.Now()
			Expect(db.Create(&domain.WorkspaceMember{WorkspaceID: 1, MemberID: 3, Role: domain.WorkspaceRoleAdmin, CreateTime: now}).Error).To(BeNil())
			Expect(db.Create(&domain.WorkspaceMember{WorkspaceID: 2, MemberID: 3, Role: domain.WorkspaceRoleMember, CreateTime: now}).Error).To(BeNil())
			Expect(db.Create(&domain.ProjectMember{ProjectID: 10, MemberID: 3, Role: domain.ProjectRoleLead, CreateTime: now}).Error).To(BeNil())
			Expect(db.Create(&domain.ProjectMember{ProjectID: 20, MemberID: 3, Role: domain.ProjectRoleMember, CreateTime: now.Add(time.Second)}).Error).To(BeNil())
			Expect(db.Create(&domain.ProjectMember{ProjectID: 404, MemberID: 3, Role: domain.ProjectRoleMember, CreateTime: now}).Error).To(BeNil())

			perms, wr, pr, err := account.LoadPermFunc(3)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{"workspace-admin_1", "workspace-member_1", "workspace-member_2",
				"project-lead_10", "project-member_20"}))
			Expect(wr).To(Equal(authority.WorkspaceRoles{
				{WorkspaceID: 1, WorkspaceName: "ws1", WorkspaceSlug: "ws1", Role: domain.WorkspaceRoleAdmin},
				{WorkspaceID: 2, WorkspaceName: "ws2", WorkspaceSlug: "ws2", Role: domain.WorkspaceRoleMember},
			}))
			Expect(pr).To(Equal(authority.ProjectRoles{
				{ProjectID: 10, ProjectName: "p10", WorkspaceID: 1, Role: domain.ProjectRoleLead},
				{ProjectID: 20, ProjectName: "p20", WorkspaceID: 2, Role: domain.ProjectRoleMember},
			}))
		})

		It("should see every workspace as admin for system admin", func() {
			Expect(db.Create(&account.UserRoleBinding{UserID: 5, RoleID: account.SystemAdminRole}).Error).To(BeNil())
			Expect(db.Create(&domain.WorkspaceMember{WorkspaceID: 2, MemberID: 5, Role: domain.WorkspaceRoleMember, CreateTime: time.Now()}).Error).To(BeNil())

			perms, wr, pr, err := account.LoadPermFunc(5)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{"system:admin", "workspace-admin_1", "workspace-member_1",
				"workspace-admin_2", "workspace-member_2"}))
			Expect(len(wr)).To(Equal(2))
			Expect(wr[1].Role).To(Equal(domain.WorkspaceRoleAdmin))
			Expect(pr).To(BeEmpty())
		})

		It("should return empty permissions for unknown user", func() {
			perms, wr, pr, err := account.LoadPermFunc(100)
			Expect(err).To(BeNil())
			Expect(perms).To(Equal(authority.Permissions{}))
			Expect(wr).To(BeEmpty())
			Expect(pr).To(BeEmpty())
		})
	})
})
