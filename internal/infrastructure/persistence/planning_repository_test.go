package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/poa/backend/internal/domain/shared"
)

func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormIndicatorRepository_FindByID(t *testing.T) {
	t.Run("finds existing indicator", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormIndicatorRepository(gormDB)

		indicatorID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "type", "measurement_unit", "annual_target"}).
			AddRow(indicatorID, "Families enrolled", "QUANTITATIVE", "families", decimal.NewFromInt(200))

		mock.ExpectQuery(`SELECT \* FROM "indicators" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(indicatorID, 1).
			WillReturnRows(rows)

		indicator, err := repo.FindByID(context.Background(), indicatorID)

		assert.NoError(t, err)
		assert.NotNil(t, indicator)
		assert.Equal(t, "Families enrolled", indicator.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent indicator", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormIndicatorRepository(gormDB)

		indicatorID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "indicators" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(indicatorID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		indicator, err := repo.FindByID(context.Background(), indicatorID)

		assert.Error(t, err)
		assert.Nil(t, indicator)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormActivityRepository_FindByID(t *testing.T) {
	t.Run("finds existing activity", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormActivityRepository(gormDB)

		activityID := uuid.New()
		departmentID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "name", "department_id"}).
			AddRow(activityID, "Rural census field work", departmentID)

		mock.ExpectQuery(`SELECT \* FROM "activities" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(activityID, 1).
			WillReturnRows(rows)

		activity, err := repo.FindByID(context.Background(), activityID)

		assert.NoError(t, err)
		assert.NotNil(t, activity)
		assert.Equal(t, departmentID, activity.DepartmentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBudgetExecutionReader_ActivityBudget(t *testing.T) {
	t.Run("sums allocations of the activity", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		reader := NewGormBudgetExecutionReader(gormDB)

		activityID := uuid.New()

		mock.ExpectQuery(`SELECT SUM\(amount\) FROM "budget_allocations" WHERE activity_id = \$1`).
			WithArgs(activityID).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(decimal.NewFromInt(1000000)))

		total, err := reader.ActivityBudget(context.Background(), activityID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(1000000)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero for an activity without allocations", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		reader := NewGormBudgetExecutionReader(gormDB)

		activityID := uuid.New()

		mock.ExpectQuery(`SELECT SUM\(amount\) FROM "budget_allocations" WHERE activity_id = \$1`).
			WithArgs(activityID).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

		total, err := reader.ActivityBudget(context.Background(), activityID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
