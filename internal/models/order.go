package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "Credit Card"
	PaymentMethodPayPal     PaymentMethod = "PayPal"
	PaymentMethodCOD        PaymentMethod = "COD"
)

type ShippingInfo struct {
	FirstName     string `json:"firstName"               validate:"required,min=2,max=100"`
	LastName      string `json:"lastName"                validate:"required,min=2,max=100"`
	Phone         string `json:"phone"                   validate:"required,phone"`
	Email         string `json:"email"                   validate:"required,email,max=100"`
	PostalCode    string `json:"postalCode"              validate:"required,numeric,min=5,max=10"`
	Address       string `json:"address"                 validate:"required,min=5,max=200"`
	City          string `json:"city"                    validate:"omitempty,min=2,max=100"`
	State         string `json:"state"                   validate:"omitempty,min=2,max=100"`
	Country       string `json:"country"                 validate:"required,min=2,max=100"`
	StateCode     string `json:"stateCode,omitempty"`
	DeliveryNotes string `json:"deliveryNotes,omitempty" validate:"max=500"`
}

type CreditCardInfo struct {
	CardNumber string `json:"cardNumber" validate:"required,card_number"`
	Expiry     string `json:"expiry"     validate:"required,card_expiry"`
	CVV        string `json:"cvv"        validate:"required,cvv"`
}

type PaymentInfo struct {
	Method     PaymentMethod   `json:"method"               validate:"required,oneof='Credit Card' PayPal COD"`
	CreditCard *CreditCardInfo `json:"creditCard,omitempty" validate:"omitempty"`
}

type OrderProduct struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

type Order struct {
	OrderID      string         `json:"orderId"`
	UserID       UserID         `json:"userId"`
	ShippingInfo ShippingInfo   `json:"shippingInfo"`
	PaymentInfo  PaymentInfo    `json:"paymentInfo"`
	Products     []OrderProduct `json:"products"`
	TotalPrice   float64        `json:"totalPrice"`
	OrderDate    time.Time      `json:"orderDate"`
}

type PlaceOrderRequest struct {
	ShippingInfo ShippingInfo `json:"shippingInfo" validate:"required"`
	PaymentInfo  PaymentInfo  `json:"paymentInfo"  validate:"required"`
}
