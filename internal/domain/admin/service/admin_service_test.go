package service

import (
	"testing"
	"time"

	orderModel "linenloft/internal/domain/order/model"
	orderRepo "linenloft/internal/domain/order/repository"
	userModel "linenloft/internal/domain/user/model"
	"linenloft/internal/pkg/worker"
	"linenloft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockOrderRepository is a mock of orderRepo.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *orderModel.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetForOwner(id string, owner orderRepo.OwnerScope) (*orderModel.Order, error) {
	args := m.Called(id, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNo(orderNo string, owner orderRepo.OwnerScope) (*orderModel.Order, error) {
	args := m.Called(orderNo, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(id string) (*orderModel.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderRepository) ListForOwner(owner orderRepo.OwnerScope, f orderRepo.ListFilter) ([]orderModel.Order, int64, error) {
	args := m.Called(owner, f)
	return args.Get(0).([]orderModel.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListAll(f orderRepo.ListFilter) ([]orderModel.Order, int64, error) {
	args := m.Called(f)
	return args.Get(0).([]orderModel.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) CancelIfPending(id string, owner orderRepo.OwnerScope) (int64, error) {
	args := m.Called(id, owner)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(id string, meta orderModel.PaymentMeta, paidAt time.Time) (int64, error) {
	args := m.Called(id, meta, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) AdvanceFulfillment(id, from, to string) (int64, error) {
	args := m.Called(id, from, to)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock of userRepo.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*userModel.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetList(offset, limit int) ([]userModel.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]userModel.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func testOrder(id, status string) *orderModel.Order {
	order := &orderModel.Order{OrderNo: "20250101120000-abcd1234", Status: status, PaymentStatus: orderModel.PaymentPaid}
	order.ID = id
	return order
}

func TestAdvanceOrderStatus(t *testing.T) {
	t.Run("Confirmed order moves to processing", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusConfirmed), nil)
		orders.On("AdvanceFulfillment", "o1", orderModel.StatusConfirmed, orderModel.StatusProcessing).
			Return(int64(1), nil)

		got, err := svc.AdvanceOrderStatus("o1", orderModel.StatusProcessing)

		assert.NoError(t, err)
		assert.Equal(t, orderModel.StatusProcessing, got.Status)
		orders.AssertExpectations(t)
	})

	t.Run("Skipping a step is rejected", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusConfirmed), nil)

		_, err := svc.AdvanceOrderStatus("o1", orderModel.StatusShipped)

		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
		orders.AssertNotCalled(t, "AdvanceFulfillment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Pending order has no fulfillment successor", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusPending), nil)

		_, err := svc.AdvanceOrderStatus("o1", orderModel.StatusProcessing)

		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
	})

	t.Run("Every transition enqueues cache invalidation", func(t *testing.T) {
		orders := new(MockOrderRepository)
		pool := worker.NewWorkerPool(nil, 1, 10) // 不启动，任务留在队列里供断言
		svc := NewAdminService(orders, new(MockUserRepository), pool)

		customerID := "u1"
		confirmed := testOrder("o1", orderModel.StatusConfirmed)
		confirmed.CustomerID = &customerID
		orders.On("GetByID", "o1").Return(confirmed, nil)
		orders.On("AdvanceFulfillment", "o1", orderModel.StatusConfirmed, orderModel.StatusProcessing).
			Return(int64(1), nil)

		_, err := svc.AdvanceOrderStatus("o1", orderModel.StatusProcessing)

		assert.NoError(t, err)
		task := <-pool.TaskQueue
		assert.Equal(t, worker.TaskOrderStatusChanged, task.Kind)
		assert.Equal(t, "o1", task.OrderID)
	})

	t.Run("Shipping enqueues the push variant", func(t *testing.T) {
		orders := new(MockOrderRepository)
		pool := worker.NewWorkerPool(nil, 1, 10)
		svc := NewAdminService(orders, new(MockUserRepository), pool)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusProcessing), nil)
		orders.On("AdvanceFulfillment", "o1", orderModel.StatusProcessing, orderModel.StatusShipped).
			Return(int64(1), nil)

		_, err := svc.AdvanceOrderStatus("o1", orderModel.StatusShipped)

		assert.NoError(t, err)
		task := <-pool.TaskQueue
		assert.Equal(t, worker.TaskOrderShipped, task.Kind)
	})

	t.Run("Concurrent change between read and update is rejected", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusProcessing), nil)
		orders.On("AdvanceFulfillment", "o1", orderModel.StatusProcessing, orderModel.StatusShipped).
			Return(int64(0), nil)

		_, err := svc.AdvanceOrderStatus("o1", orderModel.StatusShipped)

		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
	})

	t.Run("Unknown order", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "nope").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.AdvanceOrderStatus("nope", orderModel.StatusProcessing)

		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}

func TestGenerateShippingLabel(t *testing.T) {
	t.Run("Only confirmed or processing orders get a label", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusDelivered), nil)

		_, err := svc.GenerateShippingLabel("o1")

		assert.True(t, apperrors.Is(err, apperrors.KindInvalidTransition))
	})

	t.Run("Missing uploader surfaces as upstream failure", func(t *testing.T) {
		orders := new(MockOrderRepository)
		svc := NewAdminService(orders, new(MockUserRepository), nil)

		orders.On("GetByID", "o1").Return(testOrder("o1", orderModel.StatusConfirmed), nil)

		_, err := svc.GenerateShippingLabel("o1")

		assert.True(t, apperrors.Is(err, apperrors.KindUpstreamFailure))
	})
}

func TestRenderLabel(t *testing.T) {
	order := testOrder("o1", orderModel.StatusConfirmed)
	order.ShippingAddress = orderModel.Address{
		Name: "Jamie Doe", Line1: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "US",
	}
	order.Items = []orderModel.OrderItem{{ProductName: "Linen Duvet Cover", Quantity: 1}}

	label := renderLabel(order)

	assert.Contains(t, label, order.OrderNo)
	assert.Contains(t, label, "Jamie Doe")
	assert.Contains(t, label, "Springfield")
	assert.Contains(t, label, "Items: 1")
}
