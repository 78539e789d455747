package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"kantin-kiosk/internal/domain"
)

func testProduct(price int64) domain.Product {
	return domain.Product{
		ID:       uuid.New(),
		Name:     "Roti Coklat",
		Price:    price,
		Stock:    10,
		Category: domain.CategoryFood,
		SellerID: uuid.New(),
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	c := New()
	p := testProduct(5000)

	c.AddItem(p)
	c.AddItem(p)

	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", lines[0].Quantity)
	}
	if c.Total() != 10000 {
		t.Errorf("expected total 10000, got %d", c.Total())
	}
}

func TestChangeQuantityRemovesLineAtZero(t *testing.T) {
	c := New()
	p := testProduct(5000)
	c.AddItem(p)
	c.AddItem(p)

	// Removing more than the current quantity must drop the line, never
	// leave it negative.
	c.ChangeQuantity(p.ID, -5)

	if !c.IsEmpty() {
		t.Errorf("expected empty cart, got %d lines", len(c.Lines()))
	}
	if c.ItemCount() != 0 {
		t.Errorf("expected item count 0, got %d", c.ItemCount())
	}
}

func TestChangeQuantityUnknownProductIsNoop(t *testing.T) {
	c := New()
	c.AddItem(testProduct(5000))

	c.ChangeQuantity(uuid.New(), 3)

	if c.ItemCount() != 1 {
		t.Errorf("expected item count 1, got %d", c.ItemCount())
	}
}

func TestClearIsIdempotent(t *testing.T) {
	c := New()
	c.AddItem(testProduct(5000))

	c.Clear()
	c.Clear()

	if !c.IsEmpty() || c.Total() != 0 {
		t.Error("expected empty cart after double clear")
	}
}

func TestSellersDistinctInOrder(t *testing.T) {
	c := New()
	a := testProduct(1000)
	b := testProduct(2000)
	c2 := testProduct(3000)
	c2.SellerID = a.SellerID

	c.AddItem(a)
	c.AddItem(b)
	c.AddItem(c2)

	sellers := c.Sellers()
	if len(sellers) != 2 {
		t.Fatalf("expected 2 distinct sellers, got %d", len(sellers))
	}
	if sellers[0] != a.SellerID || sellers[1] != b.SellerID {
		t.Error("sellers not in first-appearance order")
	}
}

// Property: for any sequence of AddItem/ChangeQuantity calls, ItemCount
// equals the sum of line quantities and Total equals the sum of
// price*quantity over the remaining lines.
func TestProperty_TotalsMatchLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("item count and total derive from lines", prop.ForAll(
		func(prices []int64, ops []int) bool {
			if len(prices) == 0 {
				return true
			}

			c := New()
			products := make([]domain.Product, len(prices))
			for i, p := range prices {
				products[i] = testProduct(p)
			}

			for i, op := range ops {
				p := products[i%len(products)]
				if op%3 == 0 {
					c.AddItem(p)
				} else {
					c.ChangeQuantity(p.ID, op%5-2)
				}
			}

			var wantTotal int64
			wantCount := 0
			for _, l := range c.Lines() {
				if l.Quantity < 1 {
					return false
				}
				wantTotal += l.Product.Price * int64(l.Quantity)
				wantCount += l.Quantity
			}

			return c.Total() == wantTotal && c.ItemCount() == wantCount
		},
		gen.SliceOfN(4, gen.Int64Range(0, 100000)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}

// Property: quantities never go negative regardless of deltas applied
func TestProperty_QuantityNeverNegative(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity is clamped at zero", prop.ForAll(
		func(deltas []int) bool {
			c := New()
			p := testProduct(5000)
			c.AddItem(p)

			for _, d := range deltas {
				c.ChangeQuantity(p.ID, d)
			}

			for _, l := range c.Lines() {
				if l.Quantity < 1 {
					return false
				}
			}
			return c.ItemCount() >= 0
		},
		gen.SliceOf(gen.IntRange(-10, 10)),
	))

	properties.TestingRun(t)
}
