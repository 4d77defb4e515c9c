package app

import (
	"partywork/account"
	"partywork/domain"
	"partywork/event"
	"partywork/identitysync"
)

// Models lists every persisted entity, in migration order.
func Models() []interface{} {
	return []interface{}{
		&account.User{}, &account.UserRoleBinding{},
		&domain.Workspace{}, &domain.WorkspaceMember{},
		&domain.Project{}, &domain.ProjectMember{},
		&domain.Task{}, &domain.Comment{},
		&domain.Objective{}, &domain.Indicator{},
		&domain.Resource{}, &domain.Contribution{},
		&event.EventRecord{},
		&identitysync.SyncEvent{},
	}
}
