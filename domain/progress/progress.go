package progress

import (
	"math"
	"partywork/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	ComputeProjectProgressFunc = ComputeProjectProgress
	RefreshProjectProgressFunc = RefreshProjectProgress
)

// ComputeProjectProgress averages the task done ratio, the objective completion ratio and the
// mean indicator attainment, over those of them the project has.
func ComputeProjectProgress(projectId types.ID, tx *gorm.DB) (*domain.ProjectProgress, error) {
	p := domain.ProjectProgress{ProjectID: projectId}

	if err := tx.Model(&domain.Task{}).Where("project_id = ?", projectId).Count(&p.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Task{}).Where("project_id = ? AND status = ?", projectId, domain.TaskStatusDone).
		Count(&p.DoneTasks).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Objective{}).Where("project_id = ?", projectId).Count(&p.TotalObjectives).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Objective{}).Where("project_id = ? AND completed = ?", projectId, true).
		Count(&p.CompletedObjectives).Error; err != nil {
		return nil, err
	}

	var indicators []domain.Indicator
	if err := tx.Where("project_id = ?", projectId).Find(&indicators).Error; err != nil {
		return nil, err
	}
	p.IndicatorCount = len(indicators)
	if p.IndicatorCount > 0 {
		sum := 0.0
		for _, i := range indicators {
			sum += i.Attainment()
		}
		p.IndicatorAttainment = sum / float64(p.IndicatorCount)
	}

	p.Progress = Overall(&p)
	return &p, nil
}

// Overall is the rounded percentage of the mean of existing ratios, 0 when there is none.
func Overall(p *domain.ProjectProgress) int {
	var ratios []float64
	if p.TotalTasks > 0 {
		ratios = append(ratios, float64(p.DoneTasks)/float64(p.TotalTasks))
	}
	if p.TotalObjectives > 0 {
		ratios = append(ratios, float64(p.CompletedObjectives)/float64(p.TotalObjectives))
	}
	if p.IndicatorCount > 0 {
		ratios = append(ratios, p.IndicatorAttainment)
	}
	if len(ratios) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	return int(math.Round(100 * sum / float64(len(ratios))))
}

// RefreshProjectProgress recomputes the progress and stores it on the project.
func RefreshProjectProgress(projectId types.ID, tx *gorm.DB) (*domain.ProjectProgress, error) {
	p, err := ComputeProjectProgress(projectId, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Project{}).Where("id = ?", projectId).Update("progress", p.Progress).Error; err != nil {
		return nil, err
	}
	return p, nil
}
