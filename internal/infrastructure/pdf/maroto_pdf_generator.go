// Package pdf implementa la exportación del registro local de enrôlements a PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título                    │  Fecha + total         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Nom | Adresse | Numéro | Type | Usage | Date        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: pendientes de sincronización                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Enrolement-api/internal/application/export"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// DateTimeLayout formato de la columna Date.
const DateTimeLayout = "02/01/2006 15:04:05"

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ export.EnrolementPDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa export.EnrolementPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	loc *time.Location
}

// NewMarotoPDFGenerator construye el generador. Las fechas se imprimen en loc (nil = hora local).
func NewMarotoPDFGenerator(loc *time.Location) *MarotoPDFGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &MarotoPDFGenerator{loc: loc}
}

// GenerateEnrolementsPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateEnrolementsPDF(
	_ context.Context,
	doc export.Document,
	records []entity.LocalEnrolement,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc, len(records), g.loc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(row.New(3))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(records, g.loc)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(records))

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y fecha de generación + total (der).
func headerRow(doc export.Document, total int, loc *time.Location) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(doc.Title, props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 2,
			}),
		),
		col.New(4).Add(
			text.New("Généré le "+doc.GeneratedAt.In(loc).Format(DateTimeLayout), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%d enrôlement(s)", total), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 8,
			}),
		),
	)
}

// columnas: etiqueta y ancho en la grilla de 12.
var columns = []struct {
	label string
	size  int
}{
	{"Nom", 3},
	{"Adresse", 2},
	{"Numéro", 2},
	{"Type", 1},
	{"Usage", 2},
	{"Date", 2},
}

// tableHeaderRow: cabecera con fondo azul.
func tableHeaderRow() core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		cols = append(cols, col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por enrôlement, en orden de inserción, con filas alternas sombreadas.
func tableDetailRows(records []entity.LocalEnrolement, loc *time.Location) []core.Row {
	result := make([]core.Row, 0, len(records))
	for i, rec := range records {
		values := []string{
			rec.Name,
			rec.Address,
			rec.MeterNumber,
			meterTypeLabel(rec.MeterType),
			usageLabel(rec.Usage),
			rec.CreatedAt.In(loc).Format(DateTimeLayout),
		}
		cols := make([]core.Col, 0, len(columns))
		for j, c := range columns {
			cols = append(cols, col.New(c.size).Add(text.New(values[j], props.Text{
				Size: 7.5, Top: 1.5, Left: 1, Right: 1,
			})))
		}
		r := row.New(7).Add(cols...)
		if i%2 == 1 {
			r = r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, r)
	}
	return result
}

// footerRow: cuántas copias siguen sin confirmar en el almacén remoto.
func footerRow(records []entity.LocalEnrolement) core.Row {
	pending := 0
	for _, r := range records {
		if r.SyncStatus != entity.SyncCommitted {
			pending++
		}
	}
	msg := "Tous les enrôlements sont synchronisés."
	if pending > 0 {
		msg = fmt.Sprintf("%d enrôlement(s) en attente de synchronisation.", pending)
	}
	return row.New(8).Add(col.New(12).Add(
		text.New(msg, props.Text{Size: 7, Color: colorGray, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func meterTypeLabel(t entity.MeterType) string {
	switch t {
	case entity.MeterPrepaid:
		return "Prépayé"
	case entity.MeterPostpaid:
		return "Postpayé"
	default:
		return string(t)
	}
}

func usageLabel(u entity.Usage) string {
	switch u {
	case entity.UsageDomicile:
		return "Domicile"
	case entity.UsageEntreprise:
		return "Entreprise"
	case entity.UsageCampagne:
		return "Campagne"
	case entity.UsageAppartement:
		return "Appartement"
	default:
		return string(u)
	}
}
