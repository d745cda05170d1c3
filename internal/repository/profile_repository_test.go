package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/goalflow-api/internal/models"
)

var profileRowColumns = []string{"id", "email", "full_name", "avatar_url", "theme_preference", "created_at", "updated_at"}

func TestProfileFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("u1", "ana@example.com", "Ana", nil, "dark", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, full_name, avatar_url, theme_preference, created_at, updated_at FROM profiles WHERE id = $1 LIMIT 1")).
		WithArgs("u1").
		WillReturnRows(rows)

	profile, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Ana", *profile.FullName)
	assert.Nil(t, profile.AvatarURL)
	assert.Equal(t, models.ThemeDark, profile.ThemePreference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("FROM profiles WHERE id = \\$1").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	name := "Ana"
	profile := &models.Profile{ID: "u1", FullName: &name, ThemePreference: models.ThemeLight}
	mock.ExpectExec("UPDATE profiles SET full_name = .+, avatar_url = .+, theme_preference = .+, updated_at = .+ WHERE id = .+").
		WithArgs("Ana", nil, "light", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), profile))
	assert.False(t, profile.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("UPDATE profiles SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Profile{ID: "ghost"})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
