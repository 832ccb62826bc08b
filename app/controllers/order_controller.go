package controllers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/VyaparLabs/OrderDesk/app/models"
	"github.com/VyaparLabs/OrderDesk/app/repository"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/realtime"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/statistics"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/usercontext"
	"github.com/VyaparLabs/OrderDesk/internal/pkg/watcher"
)

// allowedTransitions maps each status to the statuses an update may move to.
var allowedTransitions = map[string][]string{
	models.ORDER_STATUS_NEW:               {models.ORDER_STATUS_BANKING_COLLECTED, models.ORDER_STATUS_PAID, models.ORDER_STATUS_CANCELLED},
	models.ORDER_STATUS_BANKING_COLLECTED: {models.ORDER_STATUS_PAID, models.ORDER_STATUS_CANCELLED},
	models.ORDER_STATUS_PAID:              {models.ORDER_STATUS_COMPLETED, models.ORDER_STATUS_CANCELLED},
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type orderCreateRequest struct {
	OrderNo         string     `json:"order_no"`
	SupplierName    string     `json:"supplier_name"`
	ContactName     string     `json:"contact_name"`
	ContactPhone    string     `json:"contact_phone"`
	Quantity        float64    `json:"quantity"`
	UnitPrice       float64    `json:"unit_price"`
	FeePercent      float64    `json:"fee_percent"`
	Notes           string     `json:"notes"`
	PaymentDeadline *time.Time `json:"payment_deadline"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

type orderUpdateRequest struct {
	Status          *string    `json:"status"`
	SupplierName    *string    `json:"supplier_name"`
	ContactName     *string    `json:"contact_name"`
	ContactPhone    *string    `json:"contact_phone"`
	BankAccountName *string    `json:"bank_account_name"`
	BankAccountNo   *string    `json:"bank_account_no"`
	IFSCCode        *string    `json:"ifsc_code"`
	UPIID           *string    `json:"upi_id"`
	Quantity        *float64   `json:"quantity"`
	UnitPrice       *float64   `json:"unit_price"`
	FeePercent      *float64   `json:"fee_percent"`
	Notes           *string    `json:"notes"`
	PaymentDeadline *time.Time `json:"payment_deadline"`
	ExpiresAt       *time.Time `json:"expires_at"`
}

// HandleOrderList serves the open order list. The JSON body is cached in
// Redis for the configured stale tolerance; the watcher invalidates the key
// on every change event so the window only applies between poll and event.
func HandleOrderList(c *fiber.Ctx) error {
	if cached, err := cache.Get(statistics.CacheKeyOpenOrderList); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	orders, err := repository.GetGlobalRepositories().Order.ListOpen()
	if err != nil {
		log.Errorf("[Orders] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load orders"})
	}

	body, err := json.Marshal(fiber.Map{"orders": orders, "count": len(orders)})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to encode orders"})
	}

	tolerance := models.GetAppSettings().GetStaleTolerance()
	if err := cache.Set(statistics.CacheKeyOpenOrderList, string(body), tolerance); err != nil {
		log.Debugf("[Orders] List cache write failed: %v", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// HandleOrderGet returns one order with its items and payments.
func HandleOrderGet(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	order, err := repository.GetGlobalRepositories().Order.GetByUUID(orderUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		log.Errorf("[Orders] Get %s failed: %v", orderUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	return c.JSON(order)
}

// HandleOrderCreate creates a buy order and publishes the created event.
func HandleOrderCreate(c *fiber.Ctx) error {
	var req orderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	order := &models.BuyOrder{
		UUID:            uuid.New().String(),
		OrderNo:         strings.TrimSpace(req.OrderNo),
		SupplierName:    strings.TrimSpace(req.SupplierName),
		ContactName:     strings.TrimSpace(req.ContactName),
		ContactPhone:    strings.TrimSpace(req.ContactPhone),
		Status:          models.ORDER_STATUS_NEW,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		FeePercent:      req.FeePercent,
		Notes:           req.Notes,
		PaymentDeadline: req.PaymentDeadline,
		ExpiresAt:       req.ExpiresAt,
		CreatedByID:     usercontext.GetUserID(c),
	}

	if err := order.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalRepositories().Order.Create(order); err != nil {
		log.Errorf("[Orders] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
	}

	publishOrderEvent(realtime.EventCreated, order, nil)

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleOrderUpdate applies a partial update and publishes the updated event
// with both the old and new record so subscribers can diff.
func HandleOrderUpdate(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	repos := repository.GetGlobalRepositories()

	order, err := repos.Order.GetByUUID(orderUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}

	if order.IsTerminal() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Order is already closed"})
	}

	var req orderUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	previous := *order

	if req.Status != nil && *req.Status != order.Status {
		if !transitionAllowed(order.Status, *req.Status) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "invalid_transition",
				"message": "Cannot move order from " + order.Status + " to " + *req.Status,
			})
		}
		order.Status = *req.Status
	}
	if req.SupplierName != nil {
		order.SupplierName = strings.TrimSpace(*req.SupplierName)
	}
	if req.ContactName != nil {
		order.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.ContactPhone != nil {
		order.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.BankAccountName != nil {
		order.BankAccountName = strings.TrimSpace(*req.BankAccountName)
	}
	if req.BankAccountNo != nil {
		order.BankAccountNo = strings.TrimSpace(*req.BankAccountNo)
	}
	if req.IFSCCode != nil {
		order.IFSCCode = strings.TrimSpace(*req.IFSCCode)
	}
	if req.UPIID != nil {
		order.UPIID = strings.TrimSpace(*req.UPIID)
	}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		order.UnitPrice = *req.UnitPrice
	}
	if req.FeePercent != nil {
		order.FeePercent = *req.FeePercent
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.PaymentDeadline != nil {
		order.PaymentDeadline = req.PaymentDeadline
	}
	if req.ExpiresAt != nil {
		order.ExpiresAt = req.ExpiresAt
	}

	// Filling banking details on a fresh order moves it forward implicitly.
	if order.Status == models.ORDER_STATUS_NEW && order.HasBankingDetails() {
		order.Status = models.ORDER_STATUS_BANKING_COLLECTED
	}

	if err := order.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repos.Order.Update(order); err != nil {
		log.Errorf("[Orders] Update %s failed: %v", orderUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update order"})
	}

	publishOrderEvent(realtime.EventUpdated, order, &previous)

	return c.JSON(order)
}

// HandleOrderDelete soft deletes an order (admin only, wired in the router).
func HandleOrderDelete(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	repos := repository.GetGlobalRepositories()

	order, err := repos.Order.GetByUUID(orderUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}

	if err := repos.Order.Delete(order.ID); err != nil {
		log.Errorf("[Orders] Delete %s failed: %v", orderUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete order"})
	}

	publishOrderEvent(realtime.EventDeleted, nil, order)

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleOrderAttend records that the user clicked through to the order:
// stops its alarm and suppresses repeats until the order changes again.
func HandleOrderAttend(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	if orderUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "uuid missing"})
	}

	watcher.GetWatcher().MarkAttended(orderUUID)

	return c.JSON(fiber.Map{"attended": true})
}

type paymentCreateRequest struct {
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
}

// HandlePaymentCreate records a payment against an order. When the paid
// total covers the gross amount the order moves to paid, which in turn
// feeds the change stream.
func HandlePaymentCreate(c *fiber.Ctx) error {
	orderUUID := c.Params("uuid")
	repos := repository.GetGlobalRepositories()

	order, err := repos.Order.GetByUUID(orderUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}

	if order.IsTerminal() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Order is already closed"})
	}

	var req paymentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	payment := &models.Payment{
		UUID:      uuid.New().String(),
		OrderID:   order.ID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: strings.TrimSpace(req.Reference),
		PaidByID:  usercontext.GetUserID(c),
	}
	if err := payment.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repos.Payment.Create(payment); err != nil {
		log.Errorf("[Orders] Payment for %s failed: %v", orderUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record payment"})
	}

	if err := realtime.Publish(realtime.TablePayments, realtime.EventCreated, payment, nil); err != nil {
		log.Warnf("[Orders] Payment event publish failed: %v", err)
	}

	// Move the order to paid once the payments cover the gross amount.
	paid, err := repos.Payment.SumByOrderID(order.ID)
	if err == nil && paid >= order.GrossAmount() && transitionAllowed(order.Status, models.ORDER_STATUS_PAID) {
		previous := *order
		order.Status = models.ORDER_STATUS_PAID
		if err := repos.Order.Update(order); err != nil {
			log.Errorf("[Orders] Status update after payment failed: %v", err)
		} else {
			publishOrderEvent(realtime.EventUpdated, order, &previous)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(payment)
}

// publishOrderEvent pushes an order change onto the change stream. Publish
// failures are logged only; the reconciliation pass covers missed events.
func publishOrderEvent(kind realtime.EventKind, newOrder, oldOrder *models.BuyOrder) {
	var newRec, oldRec interface{}
	if newOrder != nil {
		newRec = newOrder
	}
	if oldOrder != nil {
		oldRec = oldOrder
	}
	if err := realtime.Publish(realtime.TableOrders, kind, newRec, oldRec); err != nil {
		log.Warnf("[Orders] Change event publish failed: %v", err)
	}
}
