package identitysync

import (
	"encoding/json"
	"partywork/account"
	"partywork/domain"
	"partywork/domain/namespace"
	"strings"
)

// webhookEnvelope is the body of every delivery, Data depends on Type.
type webhookEnvelope struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

type emailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type userData struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Username              string         `json:"username"`
	ImageURL              string         `json:"image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []emailAddress `json:"email_addresses"`
}

type deletedData struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type organizationData struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ImageURL  string `json:"image_url"`
	CreatedBy string `json:"created_by"`
}

type membershipData struct {
	ID             string           `json:"id"`
	Role           string           `json:"role"`
	Organization   organizationData `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

func (u *userData) profile() *account.ExternalProfile {
	return &account.ExternalProfile{ExternalID: u.ID, Email: u.primaryEmail(), Name: u.displayName(), ImageURL: u.ImageURL}
}

// primaryEmail falls back to the first address when the primary one is not listed.
func (u *userData) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (u *userData) displayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func (o *organizationData) organization() *namespace.ExternalOrganization {
	return &namespace.ExternalOrganization{ExternalID: o.ID, Name: o.Name, Slug: o.Slug, ImageURL: o.ImageURL, CreatorExternalID: o.CreatedBy}
}

// workspaceRole maps provider roles, only admins are distinguished.
func workspaceRole(role string) domain.WorkspaceRole {
	switch strings.ToLower(role) {
	case "org:admin", "admin":
		return domain.WorkspaceRoleAdmin
	default:
		return domain.WorkspaceRoleMember
	}
}
