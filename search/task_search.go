package search

import (
	"encoding/json"
	"fmt"
	"partywork/bizerror"
	"partywork/client/es"
	"partywork/domain"
	"partywork/domain/namespace"
	"partywork/persistence"
	"partywork/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchTasksFunc = SearchTasks

	DefaultPageSize = 20
	MaxPageSize     = 100
)

type TaskSearchQuery struct {
	Keyword   string   `json:"keyword" binding:"lte=200"`
	ProjectID types.ID `json:"projectId"`
	Page      int      `json:"page" binding:"omitempty,min=1"`
	Size      int      `json:"size" binding:"omitempty,min=1,max=100"`
}

type TaskSearchResult struct {
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
	Items []domain.Task `json:"items"`
}

// SearchTasks matches keyword against task title and description, within projects the session can view.
func SearchTasks(q *TaskSearchQuery, s *session.Session) (*TaskSearchResult, error) {
	if !IndexEnabledFunc() {
		return nil, bizerror.ErrSearchDisabled
	}
	page, size := q.Page, q.Size
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	result := &TaskSearchResult{Page: page, Size: size, Items: []domain.Task{}}

	visibleProjects, all, err := namespace.ViewableProjectIDs(persistence.ActiveDataSourceManager.GormDB(s.Context), s)
	if err != nil {
		return nil, err
	}
	if !all && len(visibleProjects) == 0 {
		return result, nil
	}

	filters := make([]es.H, 0, 3)
	if !all {
		filters = append(filters, es.H{"terms": es.H{"projectId": idStrings(visibleProjects)}})
	}
	if q.ProjectID != 0 {
		filters = append(filters, es.H{"term": es.H{"projectId": q.ProjectID.String()}})
	}
	must := make([]es.H, 0, 1)
	sorts := []es.H{}
	if q.Keyword != "" {
		must = append(must, es.H{"multi_match": es.H{"query": q.Keyword, "fields": []string{"title^3", "description"}, "operator": "AND"}})
		sorts = append(sorts, es.H{"_score": es.H{"order": "desc"}})
	}
	sorts = append(sorts, es.H{"updateTime": es.H{"order": "desc"}})

	root := es.H{"bool": es.H{"filter": filters, "must": must}}
	r, err := es.SearchFunc(s.Context, TaskIndexName, es.H{"from": (page - 1) * size, "size": size, "query": root, "sort": sorts})
	if err != nil {
		return nil, err
	}
	result.Total = r.Hits.Total.Value
	for _, hit := range r.Hits.Hits {
		doc := TaskDocument{}
		if err := json.Unmarshal([]byte(hit.Source), &doc); err != nil {
			return nil, fmt.Errorf("decode task document %s: %w", hit.Id, err)
		}
		result.Items = append(result.Items, doc.Task())
	}
	return result, nil
}

func idStrings(ids []types.ID) []string {
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, id.String())
	}
	return values
}
