package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormLedgerRepository_FindByID(t *testing.T) {
	t.Run("translates missing rows to not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(db)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "ledger_transactions" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tx, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, tx)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerRepository_NextSequenceID(t *testing.T) {
	t.Run("allocates max plus one", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(db)

		mock.ExpectQuery(`SELECT COALESCE\(MAX\(sequence_id\), 0\) \+ 1 FROM "ledger_transactions"`).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(13)))

		next, err := repo.NextSequenceID(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(13), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerRepository_Count(t *testing.T) {
	t.Run("counts all transactions", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "ledger_transactions"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

		count, err := repo.Count(context.Background(), shared.DefaultFilter())

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	})
}
