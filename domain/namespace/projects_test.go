package namespace_test

import (
	"context"
	"partywork/account"
	"partywork/authority"
	"partywork/bizerror"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/event"
	"partywork/persistence"
	"partywork/testinfra"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Projects", func() {
	var (
		testDatabase *testinfra.TestDatabase
		db           *gorm.DB
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("partywork")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db = testDatabase.DS.GormDB(context.TODO())
		migrateNamespaceTables(db)
		saveUser(db, 10, "admin")
		saveUser(db, 20, "member")
		saveUser(db, 21, "member2")
		saveUser(db, 30, "outsider")
		saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin,
			20: domain.WorkspaceRoleMember, 21: domain.WorkspaceRoleMember})

		namespace.QueryProjectNamesFunc = namespace.QueryProjectNames
		namespace.QueryUserInfosFunc = account.QueryUserInfos
		namespace.DetailProjectMembersFunc = namespace.DetailProjectMembers
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	projectMembers := func(projectId types.ID) map[types.ID]domain.ProjectRole {
		var members []domain.ProjectMember
		Expect(db.Where("project_id = ?", projectId).Find(&members).Error).To(BeNil())
		result := map[types.ID]domain.ProjectRole{}
		for _, m := range members {
			result[m.MemberID] = m.Role
		}
		return result
	}

	Describe("CreateProject", func() {
		It("should create project with defaults, lead and members", func() {
			s := testinfra.BuildSession(20, authority.WorkspaceMember(100))
			p, err := namespace.CreateProject(&domain.ProjectCreation{WorkspaceID: 100, Name: "campaign", MemberIDs: []types.ID{21, 20}}, s)
			Expect(err).To(BeNil())
			Expect(p.Status).To(Equal(domain.ProjectStatusPlanning))
			Expect(p.Priority).To(Equal(domain.PriorityMedium))
			Expect(p.LeadID).To(Equal(types.ID(20)))
			Expect(p.CreatorID).To(Equal(types.ID(20)))
			Expect(p.Progress).To(BeZero())
			Expect(projectMembers(p.ID)).To(Equal(map[types.ID]domain.ProjectRole{20: domain.ProjectRoleLead, 21: domain.ProjectRoleMember}))

			var events []event.EventRecord
			Expect(db.Find(&events).Error).To(BeNil())
			sources := map[string]int{}
			for _, e := range events {
				sources[e.SourceType]++
			}
			Expect(sources).To(Equal(map[string]int{event.SourceProject: 1, event.SourceProjectMember: 2}))
		})

		It("should reject members outside of the workspace", func() {
			s := testinfra.BuildSession(20, authority.WorkspaceMember(100))
			_, err := namespace.CreateProject(&domain.ProjectCreation{WorkspaceID: 100, Name: "campaign", MemberIDs: []types.ID{30}}, s)
			Expect(err).To(Equal(bizerror.ErrProjectMemberNotInSpace))
			_, err = namespace.CreateProject(&domain.ProjectCreation{WorkspaceID: 100, Name: "campaign", LeadID: 30}, s)
			Expect(err).To(Equal(bizerror.ErrProjectMemberNotInSpace))

			var count int
			Expect(db.Model(&domain.Project{}).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())
		})

		It("should reject end date before start date", func() {
			start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 0, -1)
			_, err := namespace.CreateProject(&domain.ProjectCreation{WorkspaceID: 100, Name: "campaign", StartDate: &start, EndDate: &end},
				testinfra.BuildSession(20, authority.WorkspaceMember(100)))
			_, ok := err.(*bizerror.ErrBadParam)
			Expect(ok).To(BeTrue())
		})

		It("should be forbidden for non workspace members", func() {
			_, err := namespace.CreateProject(&domain.ProjectCreation{WorkspaceID: 100, Name: "campaign"}, testinfra.BuildSession(30))
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("visibility", func() {
		BeforeEach(func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "public", LeadID: 10, Public: true}).Error).To(BeNil())
			Expect(db.Save(&domain.Project{ID: 2000, WorkspaceID: 100, Name: "private", LeadID: 10}).Error).To(BeNil())
			Expect(db.Save(&domain.Project{ID: 3000, WorkspaceID: 100, Name: "mine", LeadID: 10}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 3000, MemberID: 20, Role: domain.ProjectRoleMember}).Error).To(BeNil())
		})

		It("should query public and member projects", func() {
			member := testinfra.BuildSession(20, authority.WorkspaceMember(100), authority.ProjectMember(3000))
			projects, err := namespace.QueryProjects(&domain.ProjectQuery{}, member)
			Expect(err).To(BeNil())
			ids := []types.ID{}
			for _, p := range *projects {
				ids = append(ids, p.ID)
			}
			Expect(ids).To(ConsistOf(types.ID(1000), types.ID(3000)))

			admin := testinfra.BuildSession(10, authority.WorkspaceAdmin(100))
			projects, err = namespace.QueryProjects(&domain.ProjectQuery{WorkspaceID: 100}, admin)
			Expect(err).To(BeNil())
			Expect(len(*projects)).To(Equal(3))

			projects, err = namespace.QueryProjects(&domain.ProjectQuery{}, testinfra.BuildSession(30))
			Expect(err).To(BeNil())
			Expect(*projects).To(BeEmpty())
		})

		It("should detail viewable projects only", func() {
			member := testinfra.BuildSession(20, authority.WorkspaceMember(100), authority.ProjectMember(3000))
			detail, err := namespace.DetailProject(3000, member)
			Expect(err).To(BeNil())
			Expect(len(detail.Members)).To(Equal(1))
			Expect(detail.Members[0].MemberName).To(Equal("member"))
			Expect(detail.Members[0].ProjectName).To(Equal("mine"))

			_, err = namespace.DetailProject(2000, member)
			Expect(err).To(Equal(bizerror.ErrForbidden))
			_, err = namespace.DetailProject(9999, member)
			Expect(err).To(Equal(gorm.ErrRecordNotFound))

			progress, err := namespace.DetailProjectProgress(1000, member)
			Expect(err).To(BeNil())
			Expect(*progress).To(Equal(domain.ProjectProgress{ProjectID: 1000}))
		})
	})

	Describe("UpdateProject", func() {
		BeforeEach(func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "campaign", LeadID: 20,
				Status: domain.ProjectStatusPlanning, Priority: domain.PriorityMedium}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 20, Role: domain.ProjectRoleLead}).Error).To(BeNil())
		})

		It("should move the lead row", func() {
			s := testinfra.BuildSession(20, authority.WorkspaceMember(100), authority.ProjectLead(1000))
			err := namespace.UpdateProject(1000, &domain.ProjectUpdating{Name: "renamed", Status: domain.ProjectStatusActive,
				Priority: domain.PriorityHigh, LeadID: 21, Public: true}, s)
			Expect(err).To(BeNil())

			p := domain.Project{}
			Expect(db.Where("id = ?", 1000).First(&p).Error).To(BeNil())
			Expect(p.Name).To(Equal("renamed"))
			Expect(p.Status).To(Equal(domain.ProjectStatusActive))
			Expect(p.Priority).To(Equal(domain.PriorityHigh))
			Expect(p.LeadID).To(Equal(types.ID(21)))
			Expect(p.Public).To(BeTrue())
			Expect(projectMembers(1000)).To(Equal(map[types.ID]domain.ProjectRole{20: domain.ProjectRoleMember, 21: domain.ProjectRoleLead}))

			// the previous lead can not manage any more
			err = namespace.UpdateProject(1000, &domain.ProjectUpdating{Name: "again", Status: domain.ProjectStatusActive,
				Priority: domain.PriorityHigh, LeadID: 21}, s)
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})

		It("should reject lead outside of the workspace", func() {
			s := testinfra.BuildSession(10, authority.WorkspaceAdmin(100))
			err := namespace.UpdateProject(1000, &domain.ProjectUpdating{Name: "renamed", Status: domain.ProjectStatusActive,
				Priority: domain.PriorityHigh, LeadID: 30}, s)
			Expect(err).To(Equal(bizerror.ErrProjectMemberNotInSpace))
		})
	})

	Describe("DeleteProject", func() {
		It("should cascade owned records", func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "campaign", LeadID: 20}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 20, Role: domain.ProjectRoleLead}).Error).To(BeNil())
			Expect(db.Save(&domain.Task{ID: 5000, ProjectID: 1000, Title: "t"}).Error).To(BeNil())
			Expect(db.Save(&domain.Comment{ID: 6000, TaskID: 5000, ProjectID: 1000, Content: "c"}).Error).To(BeNil())
			Expect(db.Save(&domain.Objective{ID: 7000, ProjectID: 1000, Title: "o"}).Error).To(BeNil())
			Expect(db.Save(&domain.Indicator{ID: 7001, ObjectiveID: 7000, ProjectID: 1000, Name: "i", Target: 1}).Error).To(BeNil())
			Expect(db.Save(&domain.Resource{ID: 8000, ProjectID: 1000, Name: "r", Quantity: 1}).Error).To(BeNil())
			Expect(db.Save(&domain.Contribution{ID: 8001, ResourceID: 8000, ProjectID: 1000, Amount: 1}).Error).To(BeNil())

			Expect(namespace.DeleteProject(1000, testinfra.BuildSession(21, authority.WorkspaceMember(100)))).To(Equal(bizerror.ErrForbidden))
			Expect(namespace.DeleteProject(1000, testinfra.BuildSession(10, authority.WorkspaceAdmin(100)))).To(BeNil())

			for _, model := range []interface{}{&domain.Project{}, &domain.ProjectMember{}, &domain.Task{}, &domain.Comment{},
				&domain.Objective{}, &domain.Indicator{}, &domain.Resource{}, &domain.Contribution{}} {
				var count int
				Expect(db.Model(model).Count(&count).Error).To(BeNil())
				Expect(count).To(BeZero())
			}
		})
	})

	Describe("QueryProjectNames", func() {
		It("should map ids to names", func() {
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "campaign"}).Error).To(BeNil())
			names, err := namespace.QueryProjectNames([]types.ID{1000, 1})
			Expect(err).To(BeNil())
			Expect(names).To(Equal(map[types.ID]string{1000: "campaign"}))

			names, err = namespace.QueryProjectNames(nil)
			Expect(err).To(BeNil())
			Expect(names).To(BeEmpty())
		})
	})
})
