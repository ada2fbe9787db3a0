package models

import "time"

// ProductEventType names a change to a product.
type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent is published after a product change has been stored.
type ProductEvent struct {
	ID         string           `json:"id"`
	Type       ProductEventType `json:"type"`
	ProductID  uint             `json:"productId"`
	Product    *Product         `json:"product,omitempty"` // nil for deletions
	OccurredAt time.Time        `json:"occurredAt"`
}
