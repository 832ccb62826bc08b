package repository

import (
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	GetByRole(role string) ([]models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// OrderRepository defines the interface for buy-order database operations
type OrderRepository interface {
	Create(order *models.BuyOrder) error
	GetByID(id uint) (*models.BuyOrder, error)
	GetByUUID(uuid string) (*models.BuyOrder, error)
	// GetStatusFields is the point lookup used by the payment-event path:
	// only the fields the watcher needs to decide terminality and relevance.
	GetStatusFields(id uint) (*models.BuyOrder, error)
	Update(order *models.BuyOrder) error
	Delete(id uint) error
	List(offset, limit int) ([]models.BuyOrder, error)
	ListOpen() ([]models.BuyOrder, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
	CountCreatedSince(since time.Time) (int64, error)
	SumOpenAmount() (float64, error)
}

// PaymentRepository defines the interface for payment database operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByOrderID(orderID uint) ([]models.Payment, error)
	SumByOrderID(orderID uint) (float64, error)
	Count() (int64, error)
}

// NotificationRepository defines the interface for the alert feed
type NotificationRepository interface {
	Create(notification *models.Notification) error
	GetByID(id uint) (*models.Notification, error)
	ListByUserID(userID uint, offset, limit int) ([]models.Notification, error)
	CountUnreadByUserID(userID uint) (int64, error)
	MarkRead(id uint, userID uint) error
	ClearByUserID(userID uint) error
}

// SettingRepository defines the interface for settings-related database operations
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Order        OrderRepository
	Payment      PaymentRepository
	Notification NotificationRepository
	Setting      SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Order:        NewOrderRepository(db),
		Payment:      NewPaymentRepository(db),
		Notification: NewNotificationRepository(db),
		Setting:      NewSettingRepository(db),
	}
}
