package bizerror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")

	ErrWorkspaceSlugTaken       = &ErrConflict{Code: "workspace.slug_taken", Message: "workspace slug is already taken"}
	ErrLastWorkspaceAdmin       = &ErrConflict{Code: "workspace.last_admin", Message: "workspace must keep at least one admin"}
	ErrProjectLeadDelete        = &ErrConflict{Code: "project.lead_delete", Message: "project lead can not be removed"}
	ErrProjectLeadGrant         = &ErrConflict{Code: "project.lead_grant", Message: "project lead is changed by updating the project"}
	ErrProjectMemberNotInSpace  = &ErrConflict{Code: "project.member_not_in_workspace", Message: "user is not a member of the workspace"}
	ErrTaskAssigneeNotMember    = &ErrConflict{Code: "task.assignee_not_member", Message: "assignee is not a member of the project"}
	ErrResourceInUse            = &ErrConflict{Code: "resource.in_use", Message: "resource has approved contributions"}
	ErrContributionNotPending   = &ErrConflict{Code: "contribution.not_pending", Message: "contribution is not pending"}
	ErrContributionInvalidTrans = &ErrConflict{Code: "contribution.invalid_transition", Message: "transition is not allowed"}
	ErrContributionSelfReview   = &ErrConflict{Code: "contribution.self_review", Message: "contributors can not review their own contribution"}
	ErrObjectiveOrderMismatch   = &ErrConflict{Code: "objective.order_mismatch", Message: "objective ids do not match the project objectives"}
	ErrSearchDisabled           = &ErrConflict{Code: "search.disabled", Message: "search is not configured", Status: http.StatusServiceUnavailable}
	ErrObjectStoreDisabled      = &ErrConflict{Code: "object_store.disabled", Message: "object store is not configured", Status: http.StatusServiceUnavailable}
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message, Data: nil}
}

// ErrConflict is a business rule violation, 409 unless Status says otherwise.
type ErrConflict struct {
	Code    string
	Message string
	Status  int
}

func (e *ErrConflict) Error() string {
	return e.Message
}

func (e *ErrConflict) Respond() *BizErrorDetail {
	status := e.Status
	if status == 0 {
		status = http.StatusConflict
	}
	return &BizErrorDetail{Status: status, Code: e.Code, Message: e.Message}
}
