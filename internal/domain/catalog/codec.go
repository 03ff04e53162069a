package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// The catalog collections are serialized as JSON arrays of records. Prices
// are written as bare number tokens so the decimal survives the round trip
// without a float detour.

// EncodeCategories serializes a category collection.
func EncodeCategories(categories []Category) []byte {
	var e jx.Encoder
	encodeCategories(&e, categories)
	return e.Bytes()
}

// EncodeProducts serializes a product collection.
func EncodeProducts(products []Product) []byte {
	var e jx.Encoder
	encodeProducts(&e, products)
	return e.Bytes()
}

// EncodeSeed serializes a full seed payload.
func EncodeSeed(data SeedData) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("categories")
	encodeCategories(&e, data.Categories)
	e.FieldStart("products")
	encodeProducts(&e, data.Products)
	e.ObjEnd()
	return e.Bytes()
}

// DecodeCategories parses a serialized category collection.
func DecodeCategories(data []byte) ([]Category, error) {
	d := jx.DecodeBytes(data)
	return decodeCategories(d)
}

// DecodeProducts parses a serialized product collection.
func DecodeProducts(data []byte) ([]Product, error) {
	d := jx.DecodeBytes(data)
	return decodeProducts(d)
}

// DecodeSeed parses a seed payload: an object with "categories" and
// "products" arrays. Missing keys yield empty collections.
func DecodeSeed(data []byte) (SeedData, error) {
	var out SeedData
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "categories":
			categories, err := decodeCategories(d)
			if err != nil {
				return err
			}
			out.Categories = categories
			return nil
		case "products":
			products, err := decodeProducts(d)
			if err != nil {
				return err
			}
			out.Products = products
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return SeedData{}, errors.Wrap(err, "decode seed")
	}
	return out, nil
}

func encodeCategories(e *jx.Encoder, categories []Category) {
	e.ArrStart()
	for _, c := range categories {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(c.ID)
		e.FieldStart("name")
		e.Str(c.Name)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeProducts(e *jx.Encoder, products []Product) {
	e.ArrStart()
	for _, p := range products {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(p.ID)
		e.FieldStart("name")
		e.Str(p.Name)
		e.FieldStart("price")
		e.Raw([]byte(p.Price.String()))
		e.FieldStart("image")
		e.Str(p.Image)
		e.FieldStart("category_id")
		e.Int(p.CategoryID)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func decodeCategories(d *jx.Decoder) ([]Category, error) {
	var categories []Category
	if err := d.Arr(func(d *jx.Decoder) error {
		var c Category
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				c.ID, err = d.Int()
			case "name":
				c.Name, err = d.Str()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		categories = append(categories, c)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categories, nil
}

func decodeProducts(d *jx.Decoder) ([]Product, error) {
	var products []Product
	if err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				p.ID, err = d.Int()
			case "name":
				p.Name, err = d.Str()
			case "price":
				p.Price, err = DecodeDecimal(d)
			case "image":
				p.Image, err = d.Str()
			case "category_id":
				p.CategoryID, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		products = append(products, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}

// DecodeDecimal reads a decimal from either a JSON number or a string token.
func DecodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}
	n, err := d.Num()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(string(n))
}
