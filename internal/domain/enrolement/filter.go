package enrolement

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// Filter devuelve los registros cuyo nombre, dirección o numéro de compteur contienen query,
// sin distinguir mayúsculas. Búsqueda literal (sin regex); query vacía devuelve todo.
func Filter(records []entity.Enrolement, query string) []entity.Enrolement {
	query = strings.TrimSpace(query)
	out := make([]entity.Enrolement, 0, len(records))
	if query == "" {
		return append(out, records...)
	}

	// Un Caser guarda estado: uno por llamada.
	fold := cases.Fold()
	needle := fold.String(query)
	for _, r := range records {
		if strings.Contains(fold.String(r.Name), needle) ||
			strings.Contains(fold.String(r.Address), needle) ||
			strings.Contains(fold.String(r.MeterNumber), needle) {
			out = append(out, r)
		}
	}
	return out
}
