package event

import (
	"partywork/common"
	"partywork/idgen"
	"partywork/session"

	"github.com/jinzhu/gorm"
)

// CreateEvent persists an event in the transaction db, handlers are invoked by the caller after commit.
func CreateEvent(source Source, category EventCategory,
	updatedProperties []UpdatedProperty, updatedRelations []UpdatedRelation,
	identity *session.Identity, db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		ID: idgen.NextID(),
		Event: Event{
			Source: source,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,
			UpdatedRelations:  updatedRelations,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Timestamp: common.Now(),
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}

// InvokeAll invokes handlers for each event in order.
func InvokeAll(records []*EventRecord) {
	for _, r := range records {
		InvokeHandlersFunc(r)
	}
}
