package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/vittoswine/vittos-api/internal/domain"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
)

// DocumentsUseCase comprobante PDF y guía de despacho XML de un pedido.
type DocumentsUseCase struct {
	orders   *Service
	receipts ReceiptGenerator
	guides   DispatchGuideBuilder
	shop     ShopInfo
	now      func() time.Time
}

// NewDocumentsUseCase construye el caso de uso.
func NewDocumentsUseCase(orders *Service, receipts ReceiptGenerator, guides DispatchGuideBuilder, shop ShopInfo) *DocumentsUseCase {
	return &DocumentsUseCase{
		orders:   orders,
		receipts: receipts,
		guides:   guides,
		shop:     shop,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DownloadReceipt genera el PDF del pedido. Devuelve (bytes, nombre de archivo, error).
func (uc *DocumentsUseCase) DownloadReceipt(ctx context.Context, requesterID, requesterRole, orderID string) ([]byte, string, error) {
	// ── 1. Pedido con acceso verificado ────────────────────────────────────────
	o, err := uc.orders.GetOrder(ctx, requesterID, requesterRole, orderID)
	if err != nil {
		return nil, "", err
	}

	// ── 2. Render ──────────────────────────────────────────────────────────────
	pdf, err := uc.receipts.GenerateReceipt(o, uc.shop)
	if err != nil {
		return nil, "", fmt.Errorf("generar comprobante: %w", err)
	}
	return pdf, fmt.Sprintf("pedido-%s.pdf", shortID(o.ID)), nil
}

// DownloadDispatchGuide genera la guía de despacho. Sólo para pedidos en preparación o ya despachados.
func (uc *DocumentsUseCase) DownloadDispatchGuide(ctx context.Context, orderID string) ([]byte, string, error) {
	o, err := uc.orders.GetOrder(ctx, "", entity.RoleAdmin, orderID)
	if err != nil {
		return nil, "", err
	}
	switch o.Status {
	case entity.OrderStatusProcessing, entity.OrderStatusShipped, entity.OrderStatusDelivered:
	default:
		return nil, "", fmt.Errorf("%w: el pedido está %s", domain.ErrConflict, o.Status)
	}

	xml, err := uc.guides.BuildGuide(o, uc.shop, uc.now())
	if err != nil {
		return nil, "", fmt.Errorf("generar guía de despacho: %w", err)
	}
	return xml, fmt.Sprintf("guia-%s.xml", shortID(o.ID)), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
