package models

import "time"

// Product represents a stock item. Article is a short business code that is
// unique across the whole table.
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Article   string    `json:"article" gorm:"type:varchar(10);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Price     float64   `json:"price" gorm:"not null"`
	Quantity  float64   `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// ProductInput holds the user supplied fields of a product after validation.
type ProductInput struct {
	Name     string  `json:"name" validate:"min=1,max=100"`
	Article  string  `json:"article" validate:"min=1,max=10"`
	Price    float64 `json:"price" validate:"min=1,max=1000000"`
	Quantity float64 `json:"quantity" validate:"min=0,max=1000000"`
}

// Apply overwrites the mutable fields of p with the input values.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Article = in.Article
	p.Price = in.Price
	p.Quantity = in.Quantity
}

// ProductPage is one window of the product list plus the size of the whole table.
type ProductPage struct {
	Data  []Product `json:"data"`
	Total int64     `json:"total"`
}
