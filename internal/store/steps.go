package store

import (
	"codeforge/server/internal/db"

	"gorm.io/gorm/clause"
)

// LoadStep and SaveStep implement the workflow engine's durable step
// storage. They are engine-internal and therefore not key-gated.

func (s *Store) LoadStep(runID, stepName string) ([]byte, bool, error) {
	var step db.WorkflowStep
	err := s.gdb.First(&step, "run_id = ? AND step_name = ?", runID, stepName).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(step.ResultJSON), true, nil
}

func (s *Store) SaveStep(runID, stepName string, result []byte) error {
	step := db.WorkflowStep{
		RunID:       runID,
		StepName:    stepName,
		ResultJSON:  string(result),
		CompletedAt: s.nowUnixMilli(),
	}
	return s.gdb.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "run_id"}, {Name: "step_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"result_json":  step.ResultJSON,
			"completed_at": step.CompletedAt,
		}),
	}).Create(&step).Error
}
