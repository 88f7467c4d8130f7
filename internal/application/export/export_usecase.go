package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

// DefaultFileName nombre propuesto cuando el usuario no indica uno.
const DefaultFileName = "MesEnrolements"

// DocumentTitle título del documento exportado.
const DocumentTitle = "Liste de mes enrôlements"

// ExportUseCase serializa el registro local (todos los estados) a PDF.
type ExportUseCase struct {
	local       repository.LocalEnrolementRepository
	generator   EnrolementPDFGenerator
	defaultName string
	now         func() time.Time
}

// NewExportUseCase construye el caso de uso. defaultName vacío usa DefaultFileName.
func NewExportUseCase(local repository.LocalEnrolementRepository, generator EnrolementPDFGenerator, defaultName string) *ExportUseCase {
	if strings.TrimSpace(defaultName) == "" {
		defaultName = DefaultFileName
	}
	return &ExportUseCase{local: local, generator: generator, defaultName: defaultName, now: time.Now}
}

// ExportLocal genera el PDF y su nombre de archivo (con .pdf).
//
// Retorna domain.ErrNothingToExport si el registro local está vacío.
func (uc *ExportUseCase) ExportLocal(ctx context.Context, fileName string) ([]byte, string, error) {
	records, err := uc.local.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("export: leer registro local: %w", err)
	}
	if len(records) == 0 {
		return nil, "", domain.ErrNothingToExport
	}

	pdf, err := uc.generator.GenerateEnrolementsPDF(ctx, Document{
		Title:       DocumentTitle,
		GeneratedAt: uc.now(),
	}, records)
	if err != nil {
		return nil, "", fmt.Errorf("export: generar PDF: %w", err)
	}
	return pdf, uc.FileName(fileName), nil
}

// FileName normaliza el nombre elegido: sin rutas, con extensión .pdf.
func (uc *ExportUseCase) FileName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		name = uc.defaultName
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
