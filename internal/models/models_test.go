package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_AddressFirstWriteWins(t *testing.T) {
	s := NewSession("u1")
	s.SetAddress("Main St 1")
	s.SetAddress("Other St 2")
	assert.Equal(t, "Main St 1", *s.Address)
}

func TestSession_ResetSearchKeepsAddress(t *testing.T) {
	s := NewSession("u1")
	s.SetAddress("Main St 1")
	s.SetBudget(20)
	s.AddPreference("pizza")
	s.AddPreference("spicy")

	s.ResetSearch()

	assert.True(t, s.HasAddress())
	assert.False(t, s.HasBudget())
	assert.False(t, s.HasPreferences())
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("u1")
	s.SetAddress("Main St 1")
	s.SetBudget(15)
	s.AddPreference("sushi")
	s.PendingOrder = NewOrderDetails("Main St 1", MenuItem{ID: "i1", Price: 9})

	c := s.Clone()
	c.AddPreference("ramen")
	*c.Budget = 99
	c.PendingOrder.Items[0].Price = 1

	assert.Equal(t, []string{"sushi"}, s.Preferences)
	assert.Equal(t, 15.0, *s.Budget)
	assert.Equal(t, 9.0, s.PendingOrder.Items[0].Price)
}

func TestOrderDetails_Total(t *testing.T) {
	o := NewOrderDetails("A", MenuItem{Price: 4.5}, MenuItem{Price: 5.25})
	assert.InDelta(t, 9.75, o.TotalPrice, 1e-9)
	assert.True(t, o.TotalMatches())

	o.TotalPrice = 1
	assert.False(t, o.TotalMatches())
}

func TestIntent_Descriptions(t *testing.T) {
	for _, intent := range Intents {
		assert.True(t, intent.Valid())
		assert.NotEmpty(t, intent.Description())
	}
	assert.False(t, Intent("ORDER_PIZZA").Valid())
}
