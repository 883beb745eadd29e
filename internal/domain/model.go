package domain

import (
	"strings"
	"time"
)

type Order struct {
	ID                  string    `json:"id"`
	ShopID              string    `json:"shopId,omitempty"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
	Items               []Item    `json:"items"`
	Total               float64   `json:"total"`
	Customer            *Customer `json:"customer,omitempty"`
	SpecialInstructions string    `json:"specialInstructions,omitempty"`
	Priority            string    `json:"priority,omitempty"` // "rush" shortens prep estimates
}

type Item struct {
	Type     string  `json:"type,omitempty"`
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Price    float64 `json:"price"`
}

type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	IsVIP bool   `json:"isVIP"`
}

const PriorityRush = "rush"

func (o Order) ItemCount() int { return len(o.Items) }

func (o Order) HasSpecialInstructions() bool { return strings.TrimSpace(o.SpecialInstructions) != "" }

func (o Order) IsRush() bool { return o.Priority == PriorityRush }

func (o Order) IsVIP() bool { return o.Customer != nil && o.Customer.IsVIP }

// CustomerName returns an empty string for anonymous orders.
func (o Order) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return o.Customer.Name
}

// Key is the preparation-table lookup key: the item type, or its name when
// no type is set, upper-cased.
func (i Item) Key() string {
	k := strings.TrimSpace(i.Type)
	if k == "" {
		k = strings.TrimSpace(i.Name)
	}
	return strings.ToUpper(k)
}

// Units treats a missing (zero) quantity as a single unit.
func (i Item) Units() int {
	if i.Quantity == 0 {
		return 1
	}
	return i.Quantity
}
