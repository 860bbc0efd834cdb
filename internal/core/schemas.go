package core

import (
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// Table names used in reports, metrics and output files.
const (
	TableOrders   = "orders"
	TableItems    = "order_products"
	TableProducts = "products"
)

// OrderSchema describes orders.csv.
var OrderSchema = Schema[Order]{
	Name: TableOrders,
	Fields: []FieldSpec[Order]{
		int32Field("order_id", func(o *Order) *int32 { return &o.OrderID }),
		int32Field("user_id", func(o *Order) *int32 { return &o.UserID }),
		categoryField("eval_set", func(o *Order) *Category { return &o.EvalSet }),
		{
			Name:     "order_number",
			Type:     FieldInt8,
			Required: true,
			parse: func(o *Order, cell string) error {
				n, err := ParseInt(cell, 8)
				o.OrderNumber = int8(n)
				return err
			},
			format: func(o Order) string { return strconv.Itoa(int(o.OrderNumber)) },
		},
		categoryField("order_dow", func(o *Order) *Category { return &o.OrderDOW }),
		categoryField("order_hour_of_day", func(o *Order) *Category { return &o.OrderHourOfDay }),
		float4Field("days_since_prior_order", func(o *Order) *pgtype.Float4 { return &o.DaysSincePriorOrder }),
	},
}

// ItemSchema describes order_products__prior.csv.
var ItemSchema = Schema[OrderItem]{
	Name: TableItems,
	Fields: []FieldSpec[OrderItem]{
		int32Field("order_id", func(i *OrderItem) *int32 { return &i.OrderID }),
		int32Field("product_id", func(i *OrderItem) *int32 { return &i.ProductID }),
		int16Field("add_to_cart_order", func(i *OrderItem) *int16 { return &i.AddToCartOrder }),
		categoryField("reordered", func(i *OrderItem) *Category { return &i.Reordered }),
	},
}

// ProductSchema describes products.csv. product_name is optional; the
// distributed file carries it but it takes no part in validation.
var ProductSchema = Schema[Product]{
	Name: TableProducts,
	Fields: []FieldSpec[Product]{
		int32Field("product_id", func(p *Product) *int32 { return &p.ProductID }),
		{
			Name:   "product_name",
			Type:   FieldText,
			parse:  func(p *Product, cell string) error { p.ProductName = ToText(cell); return nil },
			format: func(p Product) string { return FormatText(p.ProductName) },
			isNull: func(p Product) bool { return !p.ProductName.Valid },
		},
		int16Field("aisle_id", func(p *Product) *int16 { return &p.AisleID }),
		categoryField("department_id", func(p *Product) *Category { return &p.DepartmentID }),
	},
}

func int32Field[R any](name string, ref func(*R) *int32) FieldSpec[R] {
	return FieldSpec[R]{
		Name:     name,
		Type:     FieldInt32,
		Required: true,
		parse: func(r *R, cell string) error {
			n, err := ParseInt(cell, 32)
			*ref(r) = int32(n)
			return err
		},
		format: func(r R) string { return strconv.FormatInt(int64(*ref(&r)), 10) },
	}
}

func int16Field[R any](name string, ref func(*R) *int16) FieldSpec[R] {
	return FieldSpec[R]{
		Name:     name,
		Type:     FieldInt16,
		Required: true,
		parse: func(r *R, cell string) error {
			n, err := ParseInt(cell, 16)
			*ref(r) = int16(n)
			return err
		},
		format: func(r R) string { return strconv.FormatInt(int64(*ref(&r)), 10) },
	}
}

func float4Field[R any](name string, ref func(*R) *pgtype.Float4) FieldSpec[R] {
	return FieldSpec[R]{
		Name:     name,
		Type:     FieldFloat32,
		Required: true,
		parse: func(r *R, cell string) error {
			f, err := ToFloat4(cell)
			*ref(r) = f
			return err
		},
		format: func(r R) string { return FormatFloat4(*ref(&r)) },
		isNull: func(r R) bool { return !ref(&r).Valid },
	}
}

func categoryField[R any](name string, ref func(*R) *Category) FieldSpec[R] {
	return FieldSpec[R]{
		Name:     name,
		Type:     FieldCategory,
		Required: true,
		parse: func(r *R, cell string) error {
			*ref(r) = ToCategory(cell)
			return nil
		},
		format: func(r R) string { return ref(&r).String() },
		isNull: func(r R) bool { return !ref(&r).Valid() },
	}
}
