package notify

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
)

const (
	TemplateProjectMemberAdded    = "project_member_added"
	TemplateTaskAssigned          = "task_assigned"
	TemplateTaskDueReminder       = "task_due_reminder"
	TemplateCommentAdded          = "comment_added"
	TemplateContributionSubmitted = "contribution_submitted"
	TemplateContributionReviewed  = "contribution_reviewed"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family: sans-serif; color: #222;">
<p>Hello {{.RecipientName}},</p>
{{template "content" .}}
<p><a href="{{.Link}}">Open in Partywork</a></p>
<p style="color: #888; font-size: 12px;">You receive this mail as a member of {{.ProjectName}}.</p>
</body></html>{{end}}`

type mailTemplate struct {
	subject *texttemplate.Template
	body    *template.Template
}

var templates = map[string]mailTemplate{
	TemplateProjectMemberAdded: newMailTemplate(`You joined {{.ProjectName}}`,
		`<p>{{.ActorName}} added you to the project <b>{{.ProjectName}}</b>.</p>`),
	TemplateTaskAssigned: newMailTemplate(`[{{.ProjectName}}] Task assigned: {{.TaskTitle}}`,
		`<p>{{.ActorName}} assigned you the task <b>{{.TaskTitle}}</b>.</p>{{if .DueDate}}<p>Due: {{.DueDate}}</p>{{end}}`),
	TemplateTaskDueReminder: newMailTemplate(`[{{.ProjectName}}] Task due soon: {{.TaskTitle}}`,
		`<p>The task <b>{{.TaskTitle}}</b> assigned to you is due on {{.DueDate}}.</p>`),
	TemplateCommentAdded: newMailTemplate(`[{{.ProjectName}}] New comment on {{.TaskTitle}}`,
		`<p>{{.ActorName}} commented on <b>{{.TaskTitle}}</b>:</p><blockquote>{{.Content}}</blockquote>`),
	TemplateContributionSubmitted: newMailTemplate(`[{{.ProjectName}}] New contribution to {{.ResourceName}}`,
		`<p>{{.ActorName}} offered <b>{{.Amount}}</b> for <b>{{.ResourceName}}</b>. It is waiting for your review.</p>`),
	TemplateContributionReviewed: newMailTemplate(`[{{.ProjectName}}] Your contribution was {{.Status}}`,
		`<p>{{.ActorName}} marked your contribution to <b>{{.ResourceName}}</b> as {{.Status}}.</p>{{if .Content}}<blockquote>{{.Content}}</blockquote>{{end}}`),
}

// MailData is the model of every template, templates use the fields they need.
type MailData struct {
	RecipientName string
	ActorName     string
	ProjectName   string
	TaskTitle     string
	DueDate       string
	Content       string
	ResourceName  string
	Amount        string
	Status        string
	Link          string
}

func newMailTemplate(subject, content string) mailTemplate {
	body := template.Must(template.New("layout").Parse(layout))
	template.Must(body.New("content").Parse(content))
	return mailTemplate{subject: texttemplate.Must(texttemplate.New("subject").Parse(subject)), body: body}
}

// Render returns the subject and the html body of the named template.
func Render(name string, data *MailData) (string, string, error) {
	t, found := templates[name]
	if !found {
		return "", "", fmt.Errorf("unknown mail template '%s'", name)
	}
	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := t.body.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}
