package namespace_test

import (
	"context"
	"partywork/authority"
	"partywork/bizerror"
	"partywork/common"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/event"
	"partywork/persistence"
	"partywork/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Workspaces", func() {
	var (
		testDatabase *testinfra.TestDatabase
		db           *gorm.DB
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("partywork")
		persistence.ActiveDataSourceManager = testDatabase.DS
		db = testDatabase.DS.GormDB(context.TODO())
		migrateNamespaceTables(db)
		saveUser(db, 1, "root")
		saveUser(db, 10, "admin")
		saveUser(db, 20, "member")
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	Describe("CreateWorkspace", func() {
		It("should create workspace with the creator as admin", func() {
			s := testinfra.BuildSession(1, authority.SystemAdmin)
			w, err := namespace.CreateWorkspace(&domain.WorkspaceCreation{Name: "Youth", Slug: "Youth-League"}, s)
			Expect(err).To(BeNil())
			Expect(w.Slug).To(Equal("youth-league"))
			Expect(w.OwnerID).To(Equal(types.ID(1)))

			var members []domain.WorkspaceMember
			Expect(db.Find(&members).Error).To(BeNil())
			Expect(len(members)).To(Equal(1))
			Expect(members[0].WorkspaceID).To(Equal(w.ID))
			Expect(members[0].MemberID).To(Equal(types.ID(1)))
			Expect(members[0].Role).To(Equal(domain.WorkspaceRoleAdmin))

			var events []event.EventRecord
			Expect(db.Find(&events).Error).To(BeNil())
			Expect(len(events)).To(Equal(1))
			Expect(events[0].SourceType).To(Equal(event.SourceWorkspace))
			Expect(events[0].EventCategory).To(Equal(event.EventCategory(event.EventCategoryCreated)))
		})

		It("should reject taken or invalid slug", func() {
			s := testinfra.BuildSession(1, authority.SystemAdmin)
			_, err := namespace.CreateWorkspace(&domain.WorkspaceCreation{Name: "Youth", Slug: "youth"}, s)
			Expect(err).To(BeNil())
			_, err = namespace.CreateWorkspace(&domain.WorkspaceCreation{Name: "Youth 2", Slug: "youth"}, s)
			Expect(err).To(Equal(bizerror.ErrWorkspaceSlugTaken))

			_, err = namespace.CreateWorkspace(&domain.WorkspaceCreation{Name: "Bad", Slug: "bad slug!"}, s)
			Expect(err).To(HaveOccurred())
			_, ok := err.(*bizerror.ErrBadParam)
			Expect(ok).To(BeTrue())
		})

		It("should be forbidden for non system admin", func() {
			w, err := namespace.CreateWorkspace(&domain.WorkspaceCreation{Name: "Youth", Slug: "youth"}, testinfra.BuildSession(10))
			Expect(w).To(BeNil())
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("QueryWorkspaces and DetailWorkspace", func() {
		BeforeEach(func() {
			saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin, 20: domain.WorkspaceRoleMember})
			saveWorkspace(db, 200, "second", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin})
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "p", LeadID: 10}).Error).To(BeNil())
		})

		It("should list visible workspaces with counts and role", func() {
			s := testinfra.BuildSession(20, authority.WorkspaceMember(100))
			results, err := namespace.QueryWorkspaces(s)
			Expect(err).To(BeNil())
			Expect(len(*results)).To(Equal(1))
			Expect((*results)[0].ID).To(Equal(types.ID(100)))
			Expect((*results)[0].Role).To(Equal(domain.WorkspaceRoleMember))
			Expect((*results)[0].MemberCount).To(Equal(2))
			Expect((*results)[0].ProjectCount).To(Equal(1))

			results, err = namespace.QueryWorkspaces(testinfra.BuildSession(1, authority.SystemAdmin))
			Expect(err).To(BeNil())
			Expect(len(*results)).To(Equal(2))
			for _, r := range *results {
				Expect(r.Role).To(Equal(domain.WorkspaceRoleAdmin))
			}

			results, err = namespace.QueryWorkspaces(testinfra.BuildSession(30))
			Expect(err).To(BeNil())
			Expect(*results).To(BeEmpty())
		})

		It("should detail workspace for members only", func() {
			detail, err := namespace.DetailWorkspace(200, testinfra.BuildSession(10, authority.WorkspaceAdmin(200)))
			Expect(err).To(BeNil())
			Expect(detail.Slug).To(Equal("second"))
			Expect(detail.MemberCount).To(Equal(1))
			Expect(detail.ProjectCount).To(Equal(0))
			Expect(detail.Role).To(Equal(domain.WorkspaceRoleAdmin))

			_, err = namespace.DetailWorkspace(200, testinfra.BuildSession(20, authority.WorkspaceMember(100)))
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("UpdateWorkspace", func() {
		BeforeEach(func() {
			saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin, 20: domain.WorkspaceRoleMember})
		})

		It("should update workspace by admin", func() {
			err := namespace.UpdateWorkspace(100, &domain.WorkspaceUpdating{Name: "renamed", Description: "desc"},
				testinfra.BuildSession(10, authority.WorkspaceAdmin(100)))
			Expect(err).To(BeNil())

			w := domain.Workspace{}
			Expect(db.Where("id = ?", 100).First(&w).Error).To(BeNil())
			Expect(w.Name).To(Equal("renamed"))
			Expect(w.Description).To(Equal("desc"))
			Expect(w.Slug).To(Equal("first"))
		})

		It("should be forbidden for members", func() {
			err := namespace.UpdateWorkspace(100, &domain.WorkspaceUpdating{Name: "renamed"},
				testinfra.BuildSession(20, authority.WorkspaceMember(100)))
			Expect(err).To(Equal(bizerror.ErrForbidden))
		})
	})

	Describe("DeleteWorkspace", func() {
		It("should cascade projects and members", func() {
			saveWorkspace(db, 100, "first", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin})
			Expect(db.Save(&domain.Project{ID: 1000, WorkspaceID: 100, Name: "p", LeadID: 10}).Error).To(BeNil())
			Expect(db.Save(&domain.ProjectMember{ProjectID: 1000, MemberID: 10, Role: domain.ProjectRoleLead}).Error).To(BeNil())
			Expect(db.Save(&domain.Task{ID: 5000, ProjectID: 1000, Title: "t"}).Error).To(BeNil())

			Expect(namespace.DeleteWorkspace(100, testinfra.BuildSession(10, authority.WorkspaceAdmin(100)))).
				To(Equal(bizerror.ErrForbidden))
			Expect(namespace.DeleteWorkspace(100, testinfra.BuildSession(1, authority.SystemAdmin))).To(BeNil())

			for _, model := range []interface{}{&domain.Workspace{}, &domain.WorkspaceMember{}, &domain.Project{},
				&domain.ProjectMember{}, &domain.Task{}} {
				var count int
				Expect(db.Model(model).Count(&count).Error).To(BeNil())
				Expect(count).To(BeZero())
			}
		})
	})

	Describe("SyncWorkspace", func() {
		It("should create workspace with unique slug and owner", func() {
			saveWorkspace(db, 100, "youth", nil)

			w, err := namespace.SyncWorkspace(context.TODO(), &namespace.ExternalOrganization{ExternalID: "org_x",
				Name: "Youth", Slug: "youth", CreatorExternalID: "user_10"})
			Expect(err).To(BeNil())
			Expect(w.Slug).To(Equal("youth-2"))
			Expect(w.OwnerID).To(Equal(types.ID(10)))

			var members []domain.WorkspaceMember
			Expect(db.Where("workspace_id = ?", w.ID).Find(&members).Error).To(BeNil())
			Expect(len(members)).To(Equal(1))
			Expect(members[0].Role).To(Equal(domain.WorkspaceRoleAdmin))

			w2, err := namespace.SyncWorkspace(context.TODO(), &namespace.ExternalOrganization{ExternalID: "org_x", Name: "Youth League"})
			Expect(err).To(BeNil())
			Expect(w2.ID).To(Equal(w.ID))
			Expect(w2.Name).To(Equal("Youth League"))
			Expect(w2.Slug).To(Equal("youth-2"))
		})

		It("should derive slug from name", func() {
			w, err := namespace.SyncWorkspace(context.TODO(), &namespace.ExternalOrganization{ExternalID: "org_y", Name: "North  District!"})
			Expect(err).To(BeNil())
			Expect(w.Slug).To(Equal("north-district"))
			Expect(w.OwnerID).To(BeZero())
		})

		It("should delete workspace by external id", func() {
			saveWorkspace(db, 100, "youth", map[types.ID]domain.WorkspaceRole{10: domain.WorkspaceRoleAdmin})
			Expect(namespace.DeleteWorkspaceByExternalID(context.TODO(), "org_100")).To(BeNil())
			Expect(namespace.DeleteWorkspaceByExternalID(context.TODO(), "org_unknown")).To(BeNil())

			var count int
			Expect(db.Model(&domain.Workspace{}).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())
		})

		It("should not delete any workspace for empty external id", func() {
			saveWorkspace(db, 100, "youth", nil)
			now := common.Now()
			Expect(db.Save(&domain.Workspace{ID: 200, Name: "local", Slug: "local", CreateTime: now, UpdateTime: now}).Error).To(BeNil())

			Expect(namespace.DeleteWorkspaceByExternalID(context.TODO(), "")).To(BeNil())

			var count int
			Expect(db.Model(&domain.Workspace{}).Count(&count).Error).To(BeNil())
			Expect(count).To(Equal(2))
		})
	})

	Describe("Slugify", func() {
		It("should keep alphanumeric runs", func() {
			Expect(namespace.Slugify(" Hello, World ")).To(Equal("hello-world"))
			Expect(namespace.Slugify("***")).To(Equal("workspace"))
		})
	})
})
