package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductRef is the productId of an order item. New writes always store an
// ObjectID, but legacy documents may hold a plain string, so decoding keeps
// whatever was stored and Resolvable reports whether it can be looked up.
type ProductRef struct {
	id    primitive.ObjectID
	valid bool
	raw   string
}

// NewProductRef wraps a valid product id.
func NewProductRef(id primitive.ObjectID) ProductRef {
	return ProductRef{id: id, valid: true}
}

// ParseProductRef classifies a client supplied value. Values that are not a
// 24 character hex ObjectID become unresolvable references.
func ParseProductRef(value string) ProductRef {
	trimmed := strings.TrimSpace(value)
	if id, err := primitive.ObjectIDFromHex(trimmed); err == nil {
		return NewProductRef(id)
	}
	return ProductRef{raw: value}
}

// Resolvable reports whether the reference can be looked up in the catalog.
// The all-zero ObjectID is a valid id like any other.
func (r ProductRef) Resolvable() bool {
	return r.valid
}

// ObjectID returns the referenced id, zero when unresolvable.
func (r ProductRef) ObjectID() primitive.ObjectID {
	return r.id
}

func (r ProductRef) String() string {
	if r.Resolvable() {
		return r.id.Hex()
	}
	return r.raw
}

// UnmarshalBSONValue accepts ObjectID, string and null values so a single bad
// item never fails decoding of the whole order.
func (r *ProductRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*r = ProductRef{}
		return nil
	case bsontype.ObjectID:
		var id primitive.ObjectID
		if err := bson.UnmarshalValue(t, data, &id); err != nil {
			return err
		}
		*r = NewProductRef(id)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*r = ParseProductRef(value)
		return nil
	default:
		*r = ProductRef{raw: fmt.Sprintf("<%s>", t)}
		return nil
	}
}

// MarshalBSONValue stores resolvable references as ObjectIDs and keeps
// anything else as the original string.
func (r ProductRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if r.Resolvable() {
		return bson.MarshalValue(r.id)
	}
	return bson.MarshalValue(r.raw)
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
