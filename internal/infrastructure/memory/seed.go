package memory

import (
	"time"

	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
)

// DefaultCatalog returns the demo seed data used when no catalog is configured.
func DefaultCatalog() []domain.Record {
	now := time.Now().UTC()
	return []domain.Record{
		{ProductID: "LAPTOP-001", Name: "Dell XPS 15", Quantity: 50, UnitPrice: 129999, LastUpdated: now},
		{ProductID: "PHONE-001", Name: "iPhone 15 Pro", Quantity: 100, UnitPrice: 99999, LastUpdated: now},
		{ProductID: "TABLET-001", Name: "iPad Air", Quantity: 75, UnitPrice: 59999, LastUpdated: now},
		{ProductID: "MONITOR-001", Name: "LG UltraWide", Quantity: 30, UnitPrice: 39999, LastUpdated: now},
		{ProductID: "KEYBOARD-001", Name: "Mechanical Keyboard", Quantity: 200, UnitPrice: 14999, LastUpdated: now},
		{ProductID: "MOUSE-001", Name: "Logitech MX Master", Quantity: 150, UnitPrice: 9999, LastUpdated: now},
	}
}
