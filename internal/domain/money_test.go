package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoney(0.1)
	b := NewMoney(0.2)
	assert.Equal(t, "0.3", a.Add(b).String())
	assert.Equal(t, "1.5", NewMoney(0.5).MulInt(3).String())
	assert.Equal(t, "3.33", MoneyFromInt(10).DivInt(3).String())
	assert.True(t, MoneyFromInt(10).DivInt(0).IsZero())
	assert.True(t, MoneyFromInt(-2).Max(Zero).IsZero())
}

func TestMoney_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: NewMoney(41.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 41.5}`, string(out))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.25, "b": "3.10"}`), &in))
	assert.Equal(t, "12.25", in.A.String())
	assert.Equal(t, "3.1", in.B.String())
}

func TestMoney_BSONDecimal128(t *testing.T) {
	doc, err := bson.Marshal(bson.M{"price": NewMoney(19.99)})
	require.NoError(t, err)

	raw := bson.Raw(doc).Lookup("price")
	assert.Equal(t, bsontype.Decimal128, raw.Type)

	var out struct {
		Price Money `bson:"price"`
	}
	require.NoError(t, bson.Unmarshal(doc, &out))
	assert.Equal(t, "19.99", out.Price.String())
}

func TestMoney_BSONLegacyDouble(t *testing.T) {
	doc, err := bson.Marshal(bson.M{"price": 7.5})
	require.NoError(t, err)

	var out struct {
		Price Money `bson:"price"`
	}
	require.NoError(t, bson.Unmarshal(doc, &out))
	assert.Equal(t, "7.5", out.Price.String())
}

func TestMoney_BSONLegacyString(t *testing.T) {
	var out struct {
		Price Money `bson:"price"`
	}

	doc, err := bson.Marshal(bson.M{"price": "12.50"})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(doc, &out))
	assert.True(t, out.Price.Equal(NewMoney(12.5)))

	doc, err = bson.Marshal(bson.M{"price": "twelve"})
	require.NoError(t, err)
	err = bson.Unmarshal(doc, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid amount "twelve"`)
}
