package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/inawohq/inawo-backend/internal/middleware"
	"github.com/inawohq/inawo-backend/internal/models"
	"github.com/inawohq/inawo-backend/internal/storage"
)

// OrderHandler serves the vendor's order, sale and stats views
type OrderHandler struct {
	store storage.Store
}

// NewOrderHandler creates an order handler
func NewOrderHandler(store storage.Store) *OrderHandler {
	return &OrderHandler{store: store}
}

// List returns the vendor's orders, newest first
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.store.GetOrdersByVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list orders"})
	}
	return c.JSON(orders)
}

// Cancel cancels a pending order
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid order id"})
	}

	order, err := h.store.GetOrder(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
	}
	if order.VendorID != middleware.VendorID(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Order belongs to another vendor"})
	}
	if order.Status != models.OrderStatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending orders can be cancelled"})
	}

	order.Status = models.OrderStatusCancelled
	if err := h.store.UpdateOrder(order); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not cancel order"})
	}
	return c.JSON(order)
}

// Sales returns the vendor's reconciled sales
func (h *OrderHandler) Sales(c *fiber.Ctx) error {
	sales, err := h.store.GetSalesByVendor(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not list sales"})
	}
	return c.JSON(sales)
}

// Stats returns the vendor dashboard summary
func (h *OrderHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.store.GetVendorStats(middleware.VendorID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not compute stats"})
	}
	return c.JSON(stats)
}
