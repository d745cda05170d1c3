package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/goalflow-api/internal/models"
)

var taskRowColumns = []string{"id", "goal_id", "title", "description", "is_completed", "position", "created_at", "updated_at"}

func TestTaskListByGoalOrdersByPosition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(taskRowColumns).
		AddRow("t1", "g1", "first", nil, true, 0, now, now).
		AddRow("t2", "g1", "second", "notes", false, 1, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks t WHERE t.goal_id = $1 ORDER BY t.position ASC, t.created_at ASC")).
		WithArgs("g1").
		WillReturnRows(rows)

	tasks, err := repo.ListByGoal(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "first", tasks[0].Title)
	require.NotNil(t, tasks[1].Description)
	assert.Equal(t, "notes", *tasks[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskListByUserJoinsGoals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks t JOIN goals g ON g.id = t.goal_id WHERE g.user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := repo.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskCreateAppendsPosition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE((SELECT MAX(position) + 1 FROM tasks WHERE goal_id = $2), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"position"}).AddRow(3))

	task := &models.Task{GoalID: "g1", Title: "next"}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.Equal(t, 3, task.Position)
	assert.NotEmpty(t, task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE is_completed) AS completed FROM tasks WHERE goal_id = $1")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"total", "completed"}).AddRow(4, 3))

	stats, err := repo.Stats(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStats{Completed: 3, Total: 4}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
