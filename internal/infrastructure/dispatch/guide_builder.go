// Package dispatch arma la guía de despacho XML que acompaña al pedido entregado al courier.
// El documento lleva un digest SHA-256 sobre su forma canónica (C14N) para detectar alteraciones.
package dispatch

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/vittoswine/vittos-api/internal/application/orders"
	"github.com/vittoswine/vittos-api/internal/domain/entity"
	"github.com/vittoswine/vittos-api/internal/domain/order"
)

const (
	Namespace    = "urn:vittoswine:despacho:1"
	AlgSHA256    = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgC14N      = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	digestTag    = "Integridad"
	guideVersion = "1.0"
)

// GuideBuilder implementa orders.DispatchGuideBuilder con etree.
type GuideBuilder struct{}

var _ orders.DispatchGuideBuilder = (*GuideBuilder)(nil)

// NewGuideBuilder construye el builder.
func NewGuideBuilder() *GuideBuilder { return &GuideBuilder{} }

// BuildGuide genera la guía y le agrega el nodo Integridad con el digest del resto del documento.
func (b *GuideBuilder) BuildGuide(o *entity.Order, shop orders.ShopInfo, issuedAt time.Time) ([]byte, error) {
	if o == nil {
		return nil, fmt.Errorf("dispatch: pedido nil")
	}

	root := etree.NewElement("GuiaDespacho")
	root.CreateAttr("xmlns", Namespace)
	root.CreateAttr("Id", "guia-"+o.ID)
	root.CreateAttr("Version", guideVersion)

	// ── Emisor ────────────────────────────────────────────────────────────────
	emisor := root.CreateElement("Emisor")
	emisor.CreateElement("Nombre").SetText(shop.Name)
	emisor.CreateElement("RUT").SetText(shop.TaxID)
	emisor.CreateElement("Direccion").SetText(shop.Address)

	// ── Pedido ────────────────────────────────────────────────────────────────
	pedido := root.CreateElement("Pedido")
	pedido.CreateElement("Id").SetText(o.ID)
	pedido.CreateElement("FechaCompra").SetText(o.CreatedAt.UTC().Format(time.RFC3339))
	pedido.CreateElement("FechaEmision").SetText(issuedAt.UTC().Format(time.RFC3339))
	estado := pedido.CreateElement("Estado")
	estado.CreateAttr("Codigo", string(o.Status))
	estado.SetText(order.Label(o.Status))

	// ── Destinatario ──────────────────────────────────────────────────────────
	dest := root.CreateElement("Destinatario")
	c := o.Customer
	if c == nil {
		c = &entity.OrderCustomer{}
	}
	dest.CreateElement("Nombre").SetText(c.Name)
	dest.CreateElement("Email").SetText(c.Email)
	dest.CreateElement("Telefono").SetText(c.Phone)
	dest.CreateElement("Direccion").SetText(c.Address)

	// ── Detalle ───────────────────────────────────────────────────────────────
	detalle := root.CreateElement("Detalle")
	bultos := 0
	for i, it := range o.Items {
		linea := detalle.CreateElement("Linea")
		linea.CreateAttr("Nro", strconv.Itoa(i+1))
		linea.CreateElement("ProductoId").SetText(it.ProductID)
		linea.CreateElement("Nombre").SetText(it.ProductName)
		linea.CreateElement("Cantidad").SetText(strconv.Itoa(it.Quantity))
		bultos += it.Quantity
	}

	// ── Totales ───────────────────────────────────────────────────────────────
	totales := root.CreateElement("Totales")
	totales.CreateAttr("Moneda", shop.Currency)
	totales.CreateElement("Bultos").SetText(strconv.Itoa(bultos))
	totales.CreateElement("Envio").SetText(o.ShippingCost.StringFixed(2))
	totales.CreateElement("Total").SetText(o.Total.StringFixed(2))

	// ── Integridad ────────────────────────────────────────────────────────────
	digest, err := digestOf(root)
	if err != nil {
		return nil, err
	}
	integ := root.CreateElement(digestTag)
	integ.CreateAttr("Canonicalizacion", AlgC14N)
	integ.CreateAttr("Algoritmo", AlgSHA256)
	integ.SetText(digest)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.SetRoot(root)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("dispatch: serializar guía: %w", err)
	}
	return out, nil
}

// Verify recalcula el digest de una guía y lo compara con el nodo Integridad.
func Verify(xmlBytes []byte) (bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return false, fmt.Errorf("dispatch: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return false, fmt.Errorf("dispatch: documento sin raíz")
	}
	integ := root.SelectElement(digestTag)
	if integ == nil {
		return false, fmt.Errorf("dispatch: la guía no tiene nodo %s", digestTag)
	}
	expected := integ.Text()
	root.RemoveChild(integ)

	got, err := digestOf(root)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}

// digestOf SHA-256 en base64 de la forma canónica del elemento.
func digestOf(el *etree.Element) (string, error) {
	tmp := etree.NewDocument()
	tmp.SetRoot(el.Copy())
	raw, err := tmp.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("dispatch: serializar para digest: %w", err)
	}
	canonical, err := canonicalize(raw)
	if err != nil {
		return "", fmt.Errorf("dispatch: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
