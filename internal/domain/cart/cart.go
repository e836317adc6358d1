// Package cart accumulates products picked by an operator before a sale is
// committed. A Cart is owned by a single session and is not safe for
// concurrent use.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/mabel-naski/internal/domain/product"
)

var (
	// ErrOutOfStock is returned when adding a product with no stock left.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrInsufficientStock is returned when a quantity would exceed the
	// stock known for the line.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrLineNotFound is returned when a line for the product does not exist.
	ErrLineNotFound = errors.New("product not in cart")
)

// StockError describes a stock ceiling violation for a single product.
type StockError struct {
	ProductID string
	Name      string
	Stock     int
	Err       error
}

func (e *StockError) Error() string {
	if errors.Is(e.Err, ErrOutOfStock) {
		return fmt.Sprintf("%s is out of stock", e.Name)
	}
	return fmt.Sprintf("insufficient stock for %s (available %d)", e.Name, e.Stock)
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// Line is a snapshot of a product in the cart. Stock is the ceiling known at
// the time the product was last added.
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Image     string
	Stock     int
	Quantity  int
}

// Total returns price × quantity.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered collection of lines keyed by product ID.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add inserts the product with quantity 1, or increments an existing line.
// The product snapshot refreshes the line's known stock ceiling.
func (c *Cart) Add(p product.Product) error {
	if p.Stock <= 0 {
		return &StockError{ProductID: p.ID, Name: p.Name, Err: ErrOutOfStock}
	}
	if i := c.index(p.ID); i >= 0 {
		l := &c.lines[i]
		l.Stock = p.Stock
		if l.Quantity >= p.Stock {
			return &StockError{ProductID: p.ID, Name: p.Name, Stock: p.Stock, Err: ErrInsufficientStock}
		}
		l.Quantity++
		return nil
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Stock:     p.Stock,
		Quantity:  1,
	})
	return nil
}

// SetQuantity sets the quantity of an existing line. A non-positive quantity
// removes the line; a quantity above the known stock is rejected and leaves
// the line unchanged.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}
	l := &c.lines[i]
	if quantity > l.Stock {
		return &StockError{ProductID: l.ProductID, Name: l.Name, Stock: l.Stock, Err: ErrInsufficientStock}
	}
	l.Quantity = quantity
	return nil
}

// Remove deletes the line for the product if present.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Subtotal returns the sum of all line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}
