package dto

import (
	"shopledger/internal/core/types"
	"shopledger/internal/domain/sales"
)

// SaleLine is a cart line. Price is ignored; the catalog price is charged.
type SaleLine struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int          `json:"quantity"`
	Price     *types.Money `json:"price,omitempty"`
}

func toLines(lines []SaleLine) ([]sales.LineInput, error) {
	out := make([]sales.LineInput, 0, len(lines))
	for _, l := range lines {
		productID, err := ParseID("items.productId", l.ProductID)
		if err != nil {
			return nil, err
		}
		out = append(out, sales.LineInput{ProductID: productID, Quantity: l.Quantity, Price: l.Price})
	}
	return out, nil
}

// CreateSaleRequest is a till checkout.
type CreateSaleRequest struct {
	CustomerName  string       `json:"customerName"`
	CustomerPhone string       `json:"customerPhone"`
	Items         []SaleLine   `json:"items"`
	PaymentMethod string       `json:"paymentMethod" binding:"required"`
	AmountPaid    *types.Money `json:"amountPaid"`
}

func (r *CreateSaleRequest) ToDomain() (sales.CreateInput, error) {
	lines, err := toLines(r.Items)
	if err != nil {
		return sales.CreateInput{}, err
	}
	return sales.CreateInput{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Items:         lines,
		PaymentMethod: sales.PaymentMethod(r.PaymentMethod),
		AmountPaid:    r.AmountPaid,
	}, nil
}

// ConsolidateRequest folds new lines and a payment into an open tab.
type ConsolidateRequest struct {
	AdditionalPayment types.Money `json:"additionalPayment"`
	Items             []SaleLine  `json:"newItems"`
}

func (r *ConsolidateRequest) ToDomain() (sales.ConsolidateInput, error) {
	lines, err := toLines(r.Items)
	if err != nil {
		return sales.ConsolidateInput{}, err
	}
	return sales.ConsolidateInput{AdditionalPayment: r.AdditionalPayment, Items: lines}, nil
}

type PaymentRequest struct {
	AdditionalPayment types.Money `json:"additionalPayment"`
}

type DebtRequest struct {
	AdditionalDebt types.Money `json:"additionalDebt"`
}

// SaleListQuery filters GET /sales.
type SaleListQuery struct {
	DateRangeQuery
	Status   string `form:"status"`
	Customer string `form:"customer"`
	Limit    int    `form:"limit"`
}

func (q SaleListQuery) ToFilter() (sales.ListFilter, error) {
	from, to, err := q.Bounds()
	if err != nil {
		return sales.ListFilter{}, err
	}
	return sales.ListFilter{
		Status:       sales.Status(q.Status),
		CustomerName: q.Customer,
		From:         from,
		To:           to,
		Limit:        q.Limit,
	}, nil
}

// OutstandingResponse sums open tabs.
type OutstandingResponse struct {
	Outstanding types.Money `json:"outstanding"`
	OpenTabs    int         `json:"openTabs"`
}
