package notify

import (
	"context"
	"fmt"
	"partywork/account"
	"partywork/config"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/domain/resource"
	"partywork/domain/task"
	"partywork/event"
	"partywork/persistence"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

const handlerIdentifier = "notification"

var QueryUserInfosFunc = account.QueryUserInfos

type MessageQueue interface {
	Enqueue(msg *Message) error
}

// Notifier turns domain events into mails for the people concerned by them.
type Notifier struct {
	queue   MessageQueue
	baseURL string
}

func NewNotifier(queue MessageQueue, appBaseURL string) *Notifier {
	return &Notifier{queue: queue, baseURL: strings.TrimSuffix(appBaseURL, "/")}
}

// Setup starts the mail dispatcher and hooks the notifier into events and due reminders.
// It returns nil when SMTP is not configured.
func Setup(c *config.AppConfig) *Dispatcher {
	if !c.SMTP.Enabled() {
		logrus.Warn("smtp host is not configured, mail notifications are disabled")
		return nil
	}
	d := NewDispatcher(NewMailer(c.SMTP), DefaultQueueSize)
	d.Start()

	n := NewNotifier(d, c.AppBaseURL)
	event.RegisterHandler(n.NotificationEventHandler)
	task.RemindTaskFunc = n.RemindTask
	logrus.WithField("host", c.SMTP.Host).Info("mail notifications enabled")
	return d
}

type notification struct {
	template  string
	recipient types.ID
	data      MailData
}

func (n *Notifier) NotificationEventHandler(e *event.EventRecord) *event.EventHandleResult {
	mails, err := n.mailsOf(e)
	if err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: handlerIdentifier}
	}
	if mails == nil {
		return nil
	}
	sent, err := n.send(mails, e.CreatorId)
	if err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: handlerIdentifier}
	}
	return &event.EventHandleResult{Success: true, Message: fmt.Sprintf("%d mail(s) queued", sent), HandlerIdentifier: handlerIdentifier}
}

// RemindTask mails the assignee of a task which is due soon.
func (n *Notifier) RemindTask(ctx context.Context, t *domain.Task) error {
	p, err := namespace.FindProject(persistence.ActiveDataSourceManager.GormDB(ctx), t.ProjectID)
	if err != nil {
		return err
	}
	m := notification{template: TemplateTaskDueReminder, recipient: t.AssigneeID, data: MailData{ProjectName: p.Name,
		TaskTitle: t.Title, DueDate: formatDate(t.DueDate), Link: n.taskLink(t)}}
	_, err = n.send([]notification{m}, 0)
	return err
}

func (n *Notifier) mailsOf(e *event.EventRecord) ([]notification, error) {
	switch {
	case e.SourceType == event.SourceTask && (e.EventCategory == event.EventCategoryCreated || e.EventCategory == event.EventCategoryPropertyUpdated):
		return n.taskAssignedMails(e)
	case e.SourceType == event.SourceComment && e.EventCategory == event.EventCategoryCreated:
		return n.commentMails(e)
	case e.SourceType == event.SourceContribution && e.EventCategory == event.EventCategoryCreated:
		return n.contributionSubmittedMails(e)
	case e.SourceType == event.SourceContribution && e.EventCategory == event.EventCategoryPropertyUpdated:
		return n.contributionReviewedMails(e)
	case e.SourceType == event.SourceProjectMember && e.EventCategory == event.EventCategoryRelationUpdated:
		return n.memberAddedMails(e)
	}
	return nil, nil
}

func (n *Notifier) taskAssignedMails(e *event.EventRecord) ([]notification, error) {
	assignee, ok := e.Property("AssigneeId")
	if !ok || assignee.NewValue == "" {
		return nil, nil
	}
	assigneeId, err := types.ParseID(assignee.NewValue)
	if err != nil {
		return nil, err
	}
	t, err := task.FindTask(persistence.ActiveDataSourceManager.GormDB(context.Background()), e.SourceId)
	if err != nil {
		return nil, err
	}
	return []notification{{template: TemplateTaskAssigned, recipient: assigneeId, data: MailData{ActorName: e.CreatorName,
		ProjectName: n.projectName(e), TaskTitle: t.Title, DueDate: formatDate(t.DueDate), Link: n.taskLink(t)}}}, nil
}

func (n *Notifier) commentMails(e *event.EventRecord) ([]notification, error) {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	comment := domain.Comment{}
	if err := db.Where(&domain.Comment{ID: e.SourceId}).First(&comment).Error; err != nil {
		return nil, err
	}
	t, err := task.FindTask(db, comment.TaskID)
	if err != nil {
		return nil, err
	}
	data := MailData{ActorName: e.CreatorName, ProjectName: n.projectName(e), TaskTitle: t.Title, Content: comment.Content, Link: n.taskLink(t)}
	mails := []notification{}
	for _, recipient := range []types.ID{t.AssigneeID, t.CreatorID} {
		if recipient == 0 || (len(mails) > 0 && mails[0].recipient == recipient) {
			continue
		}
		mails = append(mails, notification{template: TemplateCommentAdded, recipient: recipient, data: data})
	}
	return mails, nil
}

func (n *Notifier) contributionSubmittedMails(e *event.EventRecord) ([]notification, error) {
	p, err := namespace.FindProject(persistence.ActiveDataSourceManager.GormDB(context.Background()), e.ProjectId)
	if err != nil {
		return nil, err
	}
	amount, _ := e.Property("Amount")
	return []notification{{template: TemplateContributionSubmitted, recipient: p.LeadID, data: MailData{ActorName: e.CreatorName,
		ProjectName: p.Name, ResourceName: e.SourceDesc, Amount: amount.NewValueDesc, Link: n.resourcesLink(p.ID)}}}, nil
}

func (n *Notifier) contributionReviewedMails(e *event.EventRecord) ([]notification, error) {
	status, ok := e.Property("Status")
	if !ok {
		return nil, nil
	}
	c, err := resource.FindContribution(persistence.ActiveDataSourceManager.GormDB(context.Background()), e.SourceId)
	if err != nil {
		return nil, err
	}
	return []notification{{template: TemplateContributionReviewed, recipient: c.ContributorID, data: MailData{ActorName: e.CreatorName,
		ProjectName: n.projectName(e), ResourceName: e.SourceDesc, Status: strings.ToLower(status.NewValue),
		Content: c.ReviewNote, Link: n.resourcesLink(e.ProjectId)}}}, nil
}

func (n *Notifier) memberAddedMails(e *event.EventRecord) ([]notification, error) {
	relation, ok := e.Relation("MemberId")
	if !ok || relation.NewTargetId == "" {
		return nil, nil
	}
	memberId, err := types.ParseID(relation.NewTargetId)
	if err != nil {
		return nil, err
	}
	return []notification{{template: TemplateProjectMemberAdded, recipient: memberId, data: MailData{ActorName: e.CreatorName,
		ProjectName: e.SourceDesc, Link: n.projectLink(e.ProjectId)}}}, nil
}

// send renders and queues the mails, skipping the actor and recipients without email.
func (n *Notifier) send(mails []notification, actor types.ID) (int, error) {
	var ids []types.ID
	for _, m := range mails {
		ids = append(ids, m.recipient)
	}
	users, err := QueryUserInfosFunc(ids)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range mails {
		if m.recipient == 0 || m.recipient == actor {
			continue
		}
		user, found := users[m.recipient]
		if !found || user.Email == "" {
			logrus.WithFields(logrus.Fields{"template": m.template, "user": m.recipient}).Info("recipient has no email, skip")
			continue
		}
		m.data.RecipientName = user.DisplayName()
		subject, body, err := Render(m.template, &m.data)
		if err != nil {
			return sent, err
		}
		if err := n.queue.Enqueue(&Message{To: []string{user.Email}, Subject: subject, HTMLBody: body, Template: m.template}); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (n *Notifier) projectName(e *event.EventRecord) string {
	p, err := namespace.FindProject(persistence.ActiveDataSourceManager.GormDB(context.Background()), e.ProjectId)
	if err != nil {
		return ""
	}
	return p.Name
}

func (n *Notifier) projectLink(projectId types.ID) string {
	return fmt.Sprintf("%s/projects/%s", n.baseURL, projectId)
}

func (n *Notifier) taskLink(t *domain.Task) string {
	return fmt.Sprintf("%s/projects/%s/tasks/%s", n.baseURL, t.ProjectID, t.ID)
}

func (n *Notifier) resourcesLink(projectId types.ID) string {
	return fmt.Sprintf("%s/projects/%s/resources", n.baseURL, projectId)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
