package kitchen

import (
	"time"

	"restaurant-orders/internal/domain"
)

const (
	baseDuration    = 5 * time.Second
	perUnitDuration = 3 * time.Second
)

// EstimatePrepTime computes the simulated preparation time for an item list:
// a fixed base plus a per-unit cost over the summed quantities (not the
// distinct item count).
func EstimatePrepTime(items []domain.OrderItem) time.Duration {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return baseDuration + time.Duration(total)*perUnitDuration
}
