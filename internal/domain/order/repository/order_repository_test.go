package repository

import (
	"testing"
	"time"

	"linenloft/internal/domain/order/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (OrderRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	assert.NoError(t, err)

	return NewOrderRepository(gdb), mock
}

func TestCancelIfPendingSQL(t *testing.T) {
	t.Run("Update is conditioned on current status", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		// 取消只在状态仍为 PENDING 的行上生效，状态检查必须在 UPDATE 的 WHERE 里
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .+ WHERE \(id = .+ AND status = .+\) AND customer_id = .+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rows, err := repo.CancelIfPending("o1", OwnerScope{CustomerID: "u1"})

		assert.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero rows when status already moved on", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .+ WHERE \(id = .+ AND status = .+\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		rows, err := repo.CancelIfPending("o1", OwnerScope{CustomerID: "u1"})

		assert.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func TestMarkPaidSQL(t *testing.T) {
	t.Run("Update is conditioned on unpaid payment status", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		// payment_status 与 status 条件都在 UPDATE 里，
		// 数据库行是并发 capture 与并发取消的仲裁者，已取消的订单不会被置为已支付
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .+ WHERE \(id = .+ AND payment_status = .+ AND status = .+\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		meta := model.PaymentMeta{CaptureID: "C1", CaptureStatus: "COMPLETED"}
		rows, err := repo.MarkPaid("o1", meta, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, int64(1), rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero rows when already paid", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET .+ WHERE \(id = .+ AND payment_status = .+ AND status = .+\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		rows, err := repo.MarkPaid("o1", model.PaymentMeta{}, time.Now())

		assert.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})
}

func TestAdvanceFulfillmentSQL(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET .+ WHERE \(id = .+ AND status = .+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows, err := repo.AdvanceFulfillment("o1", model.StatusConfirmed, model.StatusProcessing)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForOwnerScoping(t *testing.T) {
	t.Run("Query carries the customer condition", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		// id 条件与所有权条件必须在同一条 SELECT 里
		mock.ExpectQuery(`SELECT .+ FROM "orders" WHERE id = .+ AND customer_id = .+`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetForOwner("o1", OwnerScope{CustomerID: "u1"})

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Guest scope filters by email on unclaimed orders", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .+ FROM "orders" WHERE id = .+ AND \(customer_id IS NULL AND guest_email = .+\)`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetForOwner("o1", OwnerScope{GuestEmail: "guest@example.com"})

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty scope matches nothing", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .+ FROM "orders" WHERE id = .+ AND 1 = 0`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetForOwner("o1", OwnerScope{})

		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
