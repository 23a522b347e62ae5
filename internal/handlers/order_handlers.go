package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"dapurmamma_app_echo/internal/models"
	"dapurmamma_app_echo/internal/services"
)

type OrderHandler struct {
	db    *gorm.DB
	store services.OrderStore
	cache *services.RedisCache
}

func NewOrderHandler(db *gorm.DB, store services.OrderStore, cache *services.RedisCache) *OrderHandler {
	return &OrderHandler{db: db, store: store, cache: cache}
}

// ListOrders returns a paginated order listing with an optional status filter
func (h *OrderHandler) ListOrders(c echo.Context) error {
	page := 1
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	pageSize := 20

	query := h.db.WithContext(c.Request().Context()).Model(&models.Order{}).Preload("LineItems")
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return services.WrapInternal("failed to count orders", err)
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	var orders []models.Order
	if err := query.Order("id desc").Limit(pageSize).Offset((page - 1) * pageSize).Find(&orders).Error; err != nil {
		return services.WrapInternal("failed to fetch orders", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders":      orders,
		"page":        page,
		"total_pages": totalPages,
		"total_count": totalCount,
	})
}

// GetOrder returns a single order by its internal id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.store.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

// PublicOrderStatus returns the order status by public UUID. Unauthenticated
// and cached; the notification handler invalidates the cache entry whenever
// a status change is applied.
func (h *OrderHandler) PublicOrderStatus(c echo.Context) error {
	uuid := c.Param("uuid")
	if uuid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order UUID")
	}

	ctx := c.Request().Context()

	lookup := func() (OrderStatusResponse, error) {
		order, err := h.store.FindByUUID(ctx, uuid)
		if err != nil {
			return OrderStatusResponse{}, err
		}
		return OrderStatusResponse{Status: string(order.Status)}, nil
	}

	var resp OrderStatusResponse
	var err error
	if h.cache != nil {
		resp, err = services.GetOrSet(h.cache, ctx, "order-status:"+uuid, 30*time.Second, lookup)
	} else {
		resp, err = lookup()
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
