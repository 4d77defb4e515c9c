package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	EventCategoryCreated         = "CREATED"
	EventCategoryDeleted         = "DELETED"
	EventCategoryPropertyUpdated = "PROPERTY_UPDATED"
	EventCategoryRelationUpdated = "RELATION_UPDATED"
)

const (
	SourceWorkspace       = "WORKSPACE"
	SourceWorkspaceMember = "WORKSPACE_MEMBER"
	SourceProject         = "PROJECT"
	SourceProjectMember   = "PROJECT_MEMBER"
	SourceTask            = "TASK"
	SourceComment         = "COMMENT"
	SourceObjective       = "OBJECTIVE"
	SourceIndicator       = "INDICATOR"
	SourceResource        = "RESOURCE"
	SourceContribution    = "CONTRIBUTION"
)

type EventCategory string

// Source identifies the record an event is about and the scope it belongs to.
type Source struct {
	SourceId    types.ID `json:"sourceId"`
	SourceType  string   `json:"sourceType"`
	SourceDesc  string   `json:"sourceDesc"`
	WorkspaceId types.ID `json:"workspaceId"`
	ProjectId   types.ID `json:"projectId"`
}

type Event struct {
	Source

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	EventCategory     EventCategory     `json:"eventCategory"` // CREATED, DELETED, PROPERTY_UPDATED, RELATION_UPDATED
	UpdatedProperties UpdatedProperties `json:"updatedProperties" sql:"type:TEXT"`
	UpdatedRelations  UpdatedRelations  `json:"updatedRelations" sql:"type:TEXT"`
}

type EventRecord struct {
	ID types.ID `json:"id" gorm:"primary_key"`
	Event

	Timestamp time.Time `json:"timestamp"`
}

func (r *EventRecord) TableName() string {
	return "events"
}

func (r *EventRecord) Property(name string) (UpdatedProperty, bool) {
	for _, p := range r.UpdatedProperties {
		if p.PropertyName == name {
			return p, true
		}
	}
	return UpdatedProperty{}, false
}

func (r *EventRecord) Relation(name string) (UpdatedRelation, bool) {
	for _, rel := range r.UpdatedRelations {
		if rel.PropertyName == name {
			return rel, true
		}
	}
	return UpdatedRelation{}, false
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`
	PropertyDesc string `json:"propertyDesc"`

	OldValue     string `json:"oldValue"`
	OldValueDesc string `json:"oldValueDesc"`
	NewValue     string `json:"newValue"`
	NewValueDesc string `json:"newValueDesc"`
}

type UpdatedProperties []UpdatedProperty

type UpdatedRelation struct {
	PropertyName string `json:"propertyName"`
	PropertyDesc string `json:"propertyDesc"`

	TargetType     string `json:"targetType"`
	TargetTypeDesc string `json:"targetTypeDesc"`

	OldTargetId   string `json:"oldTargetId"`
	OldTargetDesc string `json:"oldTargetDesc"`
	NewTargetId   string `json:"newTargetId"`
	NewTargetDesc string `json:"newTargetDesc"`
}

type UpdatedRelations []UpdatedRelation

func (t UpdatedProperties) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *UpdatedProperties) Scan(v interface{}) error {
	return scanJSON(v, c)
}

func (t UpdatedRelations) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *UpdatedRelations) Scan(v interface{}) error {
	return scanJSON(v, c)
}

func scanJSON(v interface{}, target interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), target)
}
