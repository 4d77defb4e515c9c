package search

import (
	"context"
	"fmt"
	"partywork/bizerror"
	"partywork/client/es"
	"partywork/domain"
	"partywork/event"
	"partywork/persistence"
	"partywork/session"
	"sync"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	TaskIndexEventHandlerName = "taskIndexer"

	lock    sync.Mutex
	running bool

	SyncBatchSize = 500
	// SyncBatchInterval paces full sync batches against the search cluster
	SyncBatchInterval = 200 * time.Millisecond

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
	LoadTaskDocumentsFunc  = LoadTaskDocuments
)

// ScheduleNewSyncRun starts a full sync in background, false is returned when one is already running.
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !s.IsSystemAdmin() {
		return false, bizerror.ErrForbidden
	}
	if !IndexEnabledFunc() {
		return false, bizerror.ErrSearchDisabled
	}
	return TryFullSync(), nil
}

// TryFullSync runs IndicesFullSync in a goroutine unless a run is in progress.
func TryFullSync() bool {
	lock.Lock()
	if running {
		lock.Unlock()
		return false
	}
	running = true
	lock.Unlock()

	go func() {
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		if err := IndicesFullSyncFunc(context.Background()); err != nil {
			logrus.Errorf("indices full sync: %v", err)
		}
	}()
	return true
}

// IndicesFullSync re-indexes every task page by page.
func IndicesFullSync(ctx context.Context) (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Every(SyncBatchInterval), 1)
	total := 0
	for page := 1; ; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		docs, err := LoadTaskDocumentsFunc(ctx, page, SyncBatchSize)
		if err != nil {
			return fmt.Errorf("load tasks page %d: %w", page, err)
		}
		if len(docs) == 0 {
			logrus.Infof("indices full sync: %d tasks indexed", total)
			return nil
		}
		if err := IndexTasks(ctx, docs); err != nil {
			logrus.Warnf("indices full sync: error on index tasks(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		total += len(docs)
	}
}

func LoadTaskDocuments(ctx context.Context, page, size int) ([]TaskDocument, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	var tasks []domain.Task
	if err := db.Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return taskDocuments(db, tasks)
}

func taskDocuments(db *gorm.DB, tasks []domain.Task) ([]TaskDocument, error) {
	if len(tasks) == 0 {
		return []TaskDocument{}, nil
	}
	projectIds := make([]types.ID, 0, len(tasks))
	for _, t := range tasks {
		projectIds = append(projectIds, t.ProjectID)
	}
	var projects []domain.Project
	if err := db.Where("id IN (?)", projectIds).Find(&projects).Error; err != nil {
		return nil, err
	}
	projectMap := make(map[types.ID]*domain.Project, len(projects))
	for i := range projects {
		projectMap[projects[i].ID] = &projects[i]
	}

	docs := make([]TaskDocument, 0, len(tasks))
	for i := range tasks {
		p, found := projectMap[tasks[i].ProjectID]
		if !found {
			continue
		}
		docs = append(docs, NewTaskDocument(&tasks[i], p))
	}
	return docs, nil
}

// TaskIndexEventHandler keeps the index in line with task changes.
func TaskIndexEventHandler(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTask || !IndexEnabledFunc() {
		return nil
	}
	ctx := context.Background()

	if e.EventCategory == event.EventCategoryDeleted {
		if err := es.DeleteDocumentByIdFunc(ctx, TaskIndexName, e.SourceId); err != nil {
			return &event.EventHandleResult{
				Message:           fmt.Sprintf("delete task index %d, %v", e.SourceId, err),
				HandlerIdentifier: TaskIndexEventHandlerName,
			}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: TaskIndexEventHandlerName}
	}

	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	var tasks []domain.Task
	err := db.Where("id = ?", e.SourceId).Find(&tasks).Error
	var docs []TaskDocument
	if err == nil {
		docs, err = taskDocuments(db, tasks)
	}
	if err == nil {
		err = IndexTasks(ctx, docs)
	}
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index task %d, %v", e.SourceId, err),
			HandlerIdentifier: TaskIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: TaskIndexEventHandlerName}
}
