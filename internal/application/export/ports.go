// Package export genera el documento PDF del registro local de envíos.
package export

import (
	"context"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// Document metadatos del documento a generar.
type Document struct {
	Title       string
	GeneratedAt time.Time
}

// EnrolementPDFGenerator puerto del generador PDF (implementado en infrastructure/pdf).
type EnrolementPDFGenerator interface {
	GenerateEnrolementsPDF(ctx context.Context, doc Document, records []entity.LocalEnrolement) ([]byte, error)
}
