package shopify

// Shop is the subset of the shop resource used for connection checks.
type Shop struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Email    string `json:"email,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// Customer is the subset of the customer resource the pricing service reads.
type Customer struct {
	ID          int64  `json:"id"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Tags        string `json:"tags,omitempty"`
	OrdersCount int    `json:"orders_count,omitempty"`
}

// Order carries the fields needed to aggregate lifetime spend.
type Order struct {
	ID              int64  `json:"id"`
	Name            string `json:"name,omitempty"`
	TotalPrice      string `json:"total_price"`
	FinancialStatus string `json:"financial_status,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
}

// Property is a custom line item property shown on invoices.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AppliedDiscount is a per-line draft order discount.
type AppliedDiscount struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ValueType   string `json:"value_type"`
	Value       string `json:"value"`
	Amount      string `json:"amount,omitempty"`
}

// DraftLineItem is a draft order line.
type DraftLineItem struct {
	ID              int64            `json:"id,omitempty"`
	VariantID       int64            `json:"variant_id,omitempty"`
	Title           string           `json:"title,omitempty"`
	SKU             string           `json:"sku,omitempty"`
	Quantity        int              `json:"quantity"`
	Price           string           `json:"price,omitempty"`
	Properties      []Property       `json:"properties,omitempty"`
	AppliedDiscount *AppliedDiscount `json:"applied_discount,omitempty"`
}

// CustomerRef attaches a draft order to an existing customer.
type CustomerRef struct {
	ID int64 `json:"id"`
}

// DraftOrder is the draft order resource.
type DraftOrder struct {
	ID                        int64           `json:"id,omitempty"`
	Name                      string          `json:"name,omitempty"`
	Status                    string          `json:"status,omitempty"`
	InvoiceURL                string          `json:"invoice_url,omitempty"`
	TotalPrice                string          `json:"total_price,omitempty"`
	SubtotalPrice             string          `json:"subtotal_price,omitempty"`
	OrderID                   *int64          `json:"order_id,omitempty"`
	Note                      string          `json:"note,omitempty"`
	Tags                      string          `json:"tags,omitempty"`
	Customer                  *CustomerRef    `json:"customer,omitempty"`
	UseCustomerDefaultAddress bool            `json:"use_customer_default_address,omitempty"`
	LineItems                 []DraftLineItem `json:"line_items"`
}

// CartDiscount is a discount attached to a storefront cart.
type CartDiscount struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
