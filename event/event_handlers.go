package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventHandler returns nil if the event is not supported.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

func RegisterHandler(h EventHandler) {
	EventHandlers = append(EventHandlers, h)
}

func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		r := safeHandle(handler, record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithFields(logrus.Fields{
			"handler":  r.HandlerIdentifier,
			"source":   record.SourceType,
			"sourceId": record.SourceId,
			"category": record.EventCategory,
		})
		if r.Success {
			entry.Info("event handled: ", r.Message)
		} else {
			entry.Error("event handling failed: ", r.Message)
		}
	}
	return results
}

// safeHandle keeps a panicking handler from aborting the remaining ones.
func safeHandle(handler EventHandler, record *EventRecord) (r *EventHandleResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r = &EventHandleResult{Success: false, Message: fmt.Sprint(rec), HandlerIdentifier: "unknown"}
		}
	}()
	return handler(record)
}
