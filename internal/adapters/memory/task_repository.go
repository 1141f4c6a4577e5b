package memory

import (
	"context"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

type taskRepository struct {
	s session
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.inspections[task.InspectionID]; !ok {
			return &models.NotFoundError{Entity: "inspection", ID: task.InspectionID}
		}
		task.ID = st.nextID("tasks")
		st.tasks[task.ID] = copyTask(task)
		return nil
	})
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	var out *models.Task
	err := r.s.view(func(st *state) error {
		task, ok := st.tasks[id]
		if !ok {
			return &models.NotFoundError{Entity: "task", ID: id}
		}
		out = copyTask(task)
		return nil
	})
	return out, err
}

func (r *taskRepository) ListByInspection(ctx context.Context, inspectionID int64) ([]*models.Task, error) {
	var out []*models.Task
	err := r.s.view(func(st *state) error {
		for _, task := range st.tasks {
			if task.InspectionID == inspectionID {
				out = append(out, copyTask(task))
			}
		}
		return nil
	})
	return models.SortTasks(out), err
}

type subTaskRepository struct {
	s session
}

func (r *subTaskRepository) Create(ctx context.Context, subTask *models.SubTask) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.tasks[subTask.TaskID]; !ok {
			return &models.NotFoundError{Entity: "task", ID: subTask.TaskID}
		}
		subTask.ID = st.nextID("sub_tasks")
		st.subTasks[subTask.ID] = copySubTask(subTask)
		return nil
	})
}

func (r *subTaskRepository) GetByID(ctx context.Context, id int64) (*models.SubTask, error) {
	var out *models.SubTask
	err := r.s.view(func(st *state) error {
		subTask, ok := st.subTasks[id]
		if !ok {
			return &models.NotFoundError{Entity: "sub-task", ID: id}
		}
		out = copySubTask(subTask)
		return nil
	})
	return out, err
}

func (r *subTaskRepository) Update(ctx context.Context, subTask *models.SubTask) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.subTasks[subTask.ID]; !ok {
			return &models.NotFoundError{Entity: "sub-task", ID: subTask.ID}
		}
		st.subTasks[subTask.ID] = copySubTask(subTask)
		return nil
	})
}

func (r *subTaskRepository) ListByInspection(ctx context.Context, inspectionID int64) ([]*models.SubTask, error) {
	var out []*models.SubTask
	err := r.s.view(func(st *state) error {
		for _, subTask := range st.subTasks {
			task, ok := st.tasks[subTask.TaskID]
			if ok && task.InspectionID == inspectionID {
				out = append(out, copySubTask(subTask))
			}
		}
		return nil
	})
	return models.SortSubTasks(out), err
}
