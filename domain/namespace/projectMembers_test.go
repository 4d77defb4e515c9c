package namespace_test

import (
	"context"
	"errors"
	"partywork/account"
	"partywork/authority"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/persistence"
	"partywork/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProjectMembers", func() {
	var (
		testDatabase *testinfra.TestDatabase
		db           *gorm.DB
	)
	lead := testinfra.BuildSession(20, authority.WorkspaceMember(100), authority.ProjectLead(1000))

	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("partywork")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db = testDatabase.DS.GormDB(context.TODO())
		migrateNamespaceTables(db)
		saveUser(db, 10, "admin")
		saveUser(db, 20, "lead")
		saveUser(db, 21, "member")
		saveUser(db, 30, "outsider")
		saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin,
			20: domain.WorkspaceRoleMember, 21: domain.WorkspaceRoleMember})
		Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "campaign", LeadID: 20}).Error).To(BeNil())
		Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 20, Role: domain.ProjectRoleLead}).Error).To(BeNil())

		namespace.QueryProjectNamesFunc = namespace.QueryProjectNames
		namespace.QueryUserInfosFunc = account.QueryUserInfos
		namespace.DetailProjectMembersFunc = namespace.DetailProjectMembers
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("CreateProjectMember", func() {
		It("should add workspace members as MEMBER", func() {
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 21}, lead)).To(BeNil())
			// repeated creation is a no-op
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 21}, lead)).To(BeNil())

			var members []domain.ProjectMember
			Expect(db.Where("member_id = ?", 21).Find(&members).Error).To(BeNil())
			Expect(len(members)).To(Equal(1))
			Expect(members[0].Role).To(Equal(domain.ProjectRoleMember))
		})

		It("should reject invalid targets", func() {
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 30}, lead)).
				To(Equal(bizerror.ErrProjectMemberNotInSpace))
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 20}, lead)).
				To(Equal(bizerror.ErrProjectLeadGrant))
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 999}, lead)).
				To(Equal(gorm.ErrRecordNotFound))
			Expect(namespace.CreateProjectMember(&domain.ProjectMemberCreation{ProjectID: 1000, MemberID: 10},
				testinfra.BuildSession(21, authority.WorkspaceMember(100)))).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("QueryProjectMembers", func() {
		It("should query members of viewable projects", func() {
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 21, Role: domain.ProjectRoleMember}).Error).To(BeNil())
			projectId := types.ID(1000)
			results, err := namespace.QueryProjectMembers(&domain.ProjectMemberQuery{ProjectID: &projectId}, lead)
			Expect(err).To(BeNil())
			Expect(len(*results)).To(Equal(2))

			memberId := types.ID(21)
			member := testinfra.BuildSession(21, authority.WorkspaceMember(100), authority.ProjectMember(1000))
			results, err = namespace.QueryProjectMembers(&domain.ProjectMemberQuery{MemberID: &memberId}, member)
			Expect(err).To(BeNil())
			Expect(len(*results)).To(Equal(1))
			Expect((*results)[0].ProjectName).To(Equal("campaign"))
			Expect((*results)[0].MemberName).To(Equal("member"))
			Expect((*results)[0].MemberEmail).To(Equal("member@example.com"))

			results, err = namespace.QueryProjectMembers(&domain.ProjectMemberQuery{}, testinfra.BuildSession(30))
			Expect(err).To(BeNil())
			Expect(*results).To(BeEmpty())
		})

		It("should return error when details can not be resolved", func() {
			namespace.QueryUserInfosFunc = func(ids []types.ID) (map[types.ID]account.UserInfo, error) {
				return nil, errors.New("some error")
			}
			projectId := types.ID(1000)
			_, err := namespace.QueryProjectMembers(&domain.ProjectMemberQuery{ProjectID: &projectId}, lead)
			Expect(err).To(Equal(errors.New("some error")))
		})
	})

	Describe("DeleteProjectMember", func() {
		It("should remove member and unassign open tasks", func() {
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 21, Role: domain.ProjectRoleMember}).Error).To(BeNil())
			Expect(db.Save(&domain.Task{ID: 5000, ProjectID: 1000, Title: "open", Status: domain.TaskStatusInProgress, AssigneeID: 21}).Error).To(BeNil())

			Expect(namespace.DeleteProjectMember(&domain.ProjectMemberDeletion{ProjectID: 1000, MemberID: 21}, lead)).To(BeNil())
			var count int
			Expect(db.Model(&domain.ProjectMember{}).Where("member_id = ?", 21).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())

			task := domain.Task{}
			Expect(db.Where("id = ?", 5000).First(&task).Error).To(BeNil())
			Expect(task.AssigneeID).To(BeZero())

			// absent members are ignored
			Expect(namespace.DeleteProjectMember(&domain.ProjectMemberDeletion{ProjectID: 1000, MemberID: 21}, lead)).To(BeNil())
		})

		It("should refuse removing the lead", func() {
			Expect(namespace.DeleteProjectMember(&domain.ProjectMemberDeletion{ProjectID: 1000, MemberID: 20},
				testinfra.BuildSession(10, authority.WorkspaceAdmin(100)))).To(Equal(bizerror.ErrProjectLeadDelete))
		})
	})
})
