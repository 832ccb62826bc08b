package repository

import (
	"strings"
	"time"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new buy order in the database
func (r *orderRepository) Create(order *models.BuyOrder) error {
	return r.db.Create(order).Error
}

// GetByID retrieves an order by its ID
func (r *orderRepository) GetByID(id uint) (*models.BuyOrder, error) {
	var order models.BuyOrder
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByUUID retrieves an order by its UUID
func (r *orderRepository) GetByUUID(uuid string) (*models.BuyOrder, error) {
	trimmed := strings.TrimSpace(uuid)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var order models.BuyOrder
	err := r.db.Preload("Items").Where("uuid = ?", trimmed).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetStatusFields retrieves the minimal field set the watcher needs for a
// single order: status, order number, supplier, creator and deadlines.
func (r *orderRepository) GetStatusFields(id uint) (*models.BuyOrder, error) {
	var order models.BuyOrder
	err := r.db.
		Select("id", "uuid", "order_no", "supplier_name", "status", "created_by_id", "payment_deadline", "expires_at").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update updates an existing order in the database
func (r *orderRepository) Update(order *models.BuyOrder) error {
	return r.db.Save(order).Error
}

// Delete soft deletes an order by its ID
func (r *orderRepository) Delete(id uint) error {
	return r.db.Delete(&models.BuyOrder{}, id).Error
}

// List retrieves a paginated list of orders, newest first
func (r *orderRepository) List(offset, limit int) ([]models.BuyOrder, error) {
	var orders []models.BuyOrder
	err := r.db.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, err
}

// ListOpen retrieves all orders not yet in a terminal status. This is the
// entity set the watcher's reconciliation pass walks.
func (r *orderRepository) ListOpen() ([]models.BuyOrder, error) {
	var orders []models.BuyOrder
	err := r.db.Preload("Items").
		Where("status NOT IN ?", []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED}).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// Count returns the total number of orders
func (r *orderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.BuyOrder{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of orders in the given status
func (r *orderRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.BuyOrder{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CountCreatedSince returns the number of orders created after the given time
func (r *orderRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.BuyOrder{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// SumOpenAmount returns the gross amount over all non-terminal orders
func (r *orderRepository) SumOpenAmount() (float64, error) {
	var sum float64
	err := r.db.Model(&models.BuyOrder{}).
		Where("status NOT IN ?", []string{models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED}).
		Select("COALESCE(SUM(quantity * unit_price * (1 + fee_percent / 100)), 0)").
		Scan(&sum).Error
	return sum, err
}
