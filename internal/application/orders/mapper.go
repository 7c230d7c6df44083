package orders

import (
	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
)

// ToOrderResponse convierte el agregado en la respuesta HTTP.
func ToOrderResponse(o *entity.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		Status:       string(o.Status),
		StatusLabel:  order.Label(o.Status),
		Subtotal:     o.Subtotal(),
		ShippingCost: o.ShippingCost,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
		Items:        make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Category:  it.Category,
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	if o.Customer != nil {
		resp.Customer = &dto.OrderCustomerResponse{
			Name:    o.Customer.Name,
			Email:   o.Customer.Email,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
		}
	}
	return resp
}

// ToOrderResponses convierte una lista preservando el orden.
func ToOrderResponses(list []*entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, ToOrderResponse(o))
	}
	return out
}
