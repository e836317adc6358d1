package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/mabel-naski/internal/domain/product"
)

func newProduct(id string, price int64, stock int) product.Product {
	return product.Product{
		ID:    id,
		Name:  "Kursi " + id,
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}
}

func TestCart_AddStopsAtStock(t *testing.T) {
	for _, stock := range []int{1, 2, 5, 13} {
		p := newProduct("p1", 100_000, stock)
		c := New()

		for i := 0; i < stock; i++ {
			require.NoError(t, c.Add(p))
		}
		err := c.Add(p)
		require.ErrorIs(t, err, ErrInsufficientStock)

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, stock, lines[0].Quantity)
	}
}

func TestCart_AddOutOfStock(t *testing.T) {
	c := New()
	err := c.Add(newProduct("p1", 100, 0))

	require.ErrorIs(t, err, ErrOutOfStock)
	var se *StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "p1", se.ProductID)
	assert.True(t, c.Empty())
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantQty  int
		wantLen  int
		wantErr  error
	}{
		{name: "sets within stock", quantity: 3, wantQty: 3, wantLen: 1},
		{name: "sets exactly stock", quantity: 5, wantQty: 5, wantLen: 1},
		{name: "above stock rejected and unchanged", quantity: 6, wantQty: 1, wantLen: 1, wantErr: ErrInsufficientStock},
		{name: "zero removes line", quantity: 0, wantLen: 0},
		{name: "negative removes line", quantity: -2, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.NoError(t, c.Add(newProduct("p1", 100, 5)))

			err := c.SetQuantity("p1", tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			lines := c.Lines()
			require.Len(t, lines, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantQty, lines[0].Quantity)
			}
		})
	}
}

func TestCart_SetQuantityUnknownLine(t *testing.T) {
	c := New()
	require.ErrorIs(t, c.SetQuantity("missing", 1), ErrLineNotFound)
}

func TestCart_RemoveKeepsOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(newProduct("a", 1, 1)))
	require.NoError(t, c.Add(newProduct("b", 1, 1)))
	require.NoError(t, c.Add(newProduct("c", 1, 1)))

	c.Remove("b")
	c.Remove("does-not-exist")

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, "c", lines[1].ProductID)
}

func TestCart_Subtotal(t *testing.T) {
	c := New()
	assert.True(t, c.Subtotal().IsZero())

	require.NoError(t, c.Add(newProduct("sofa", 500_000, 4)))
	require.NoError(t, c.Add(newProduct("sofa", 500_000, 4)))
	require.NoError(t, c.Add(newProduct("meja", 250_000, 1)))

	assert.True(t, decimal.NewFromInt(1_250_000).Equal(c.Subtotal()), "got %s", c.Subtotal())

	require.NoError(t, c.SetQuantity("sofa", 1))
	assert.True(t, decimal.NewFromInt(750_000).Equal(c.Subtotal()), "got %s", c.Subtotal())
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(newProduct("p1", 100, 3)))

	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, c.Lines()[0].Quantity)
}
