package core

import (
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"
)

// quietLogger discards all output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func days(f float32) pgtype.Float4 { return pgtype.Float4{Float32: f, Valid: true} }

func order(id, user int32, number int8) Order {
	return Order{
		OrderID:        id,
		UserID:         user,
		EvalSet:        NewCategory("prior"),
		OrderNumber:    number,
		OrderDOW:       NewCategory("2"),
		OrderHourOfDay: NewCategory("8"),
	}
}

func item(orderID, productID int32, cart int16) OrderItem {
	return OrderItem{OrderID: orderID, ProductID: productID, AddToCartOrder: cart, Reordered: NewCategory("0")}
}

func product(id int32) Product {
	return Product{ProductID: id, AisleID: 1, DepartmentID: NewCategory("19")}
}

// dataset builds a Dataset using every schema column.
func dataset(orders []Order, items []OrderItem, products []Product) Dataset {
	return Dataset{
		Orders:   NewTable(OrderSchema, orders),
		Items:    NewTable(ItemSchema, items),
		Products: NewTable(ProductSchema, products),
	}
}

// cleanDataset is consistent: every check reports zero.
func cleanDataset() Dataset {
	first := order(1, 100, 1)
	second := order(2, 100, 2)
	second.DaysSincePriorOrder = days(7)
	return dataset(
		[]Order{first, second},
		[]OrderItem{item(1, 10, 1), item(1, 11, 2), item(2, 10, 1)},
		[]Product{product(10), product(11)},
	)
}

const ordersCSV = `order_id,user_id,eval_set,order_number,order_dow,order_hour_of_day,days_since_prior_order
2539329,1,prior,1,2,08,
2398795,1,prior,2,3,07,15.0
473747,1,prior,3,3,12,21.0
`

const itemsCSV = `order_id,product_id,add_to_cart_order,reordered
2539329,196,1,0
2539329,14084,2,0
2398795,196,1,1
`

const productsCSV = `product_id,product_name,aisle_id,department_id
196,Soda,77,7
14084,"Organic Unsweetened Vanilla Almond Milk, 64 fl oz",91,16
`
