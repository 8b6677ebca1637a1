package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(10), "")
		assert.Error(t, err)
	})

	t.Run("keeps amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(10), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(10)))
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add sums matching currencies", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromInt(250))

		sum, err := a.Add(b)

		require.NoError(t, err)
		assert.True(t, sum.Equals(NewMoneyINR(decimal.NewFromInt(350))))
	})

	t.Run("add rejects currency mismatch", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)

		_, err = a.Add(b)

		assert.Error(t, err)
	})

	t.Run("subtract can go negative", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromInt(250))

		diff, err := a.Subtract(b)

		require.NoError(t, err)
		assert.True(t, diff.IsNegative())
	})
}

func TestMoney_JSON(t *testing.T) {
	t.Run("marshals as amount plus currency", func(t *testing.T) {
		m := NewMoneyINR(decimal.NewFromInt(350))

		data, err := json.Marshal(m)

		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"350","currency":"INR"}`, string(data))
	})

	t.Run("unmarshal defaults missing currency", func(t *testing.T) {
		var m Money
		require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.5"}`), &m))

		assert.Equal(t, DefaultCurrency, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("unmarshal rejects a bad amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"not-a-number","currency":"INR"}`), &m)
		assert.Error(t, err)
	})
}
