package dto

import (
	"time"

	rules "github.com/jhoicas/Enrolement-api/internal/domain/enrolement"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
)

// SubmitEnrolementRequest cuerpo de POST /api/enrolements (campos del formulario).
type SubmitEnrolementRequest struct {
	Name        string `json:"name" example:"Jean Paul"`
	Phone       string `json:"phone" example:"699640151"`
	Email       string `json:"email" example:"jean@mail.com"`
	MeterType   string `json:"meterType" example:"prepaid" enums:"prepaid,postpaid"`
	MeterNumber string `json:"meterNumber" example:"011234567890"`
	Address     string `json:"address" example:"Bonamoussadi"`
	Usage       string `json:"usage" example:"domicile" enums:"domicile,entreprise,campagne,appartement"`
}

// ToInput convierte la petición en la entrada del validador.
func (r SubmitEnrolementRequest) ToInput() rules.Input {
	return rules.Input{
		Name:        r.Name,
		Phone:       r.Phone,
		Email:       r.Email,
		MeterType:   r.MeterType,
		MeterNumber: r.MeterNumber,
		Address:     r.Address,
		Usage:       r.Usage,
	}
}

// EnrolementResponse representación pública de un enrôlement.
type EnrolementResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	MeterType   string    `json:"meterType"`
	MeterNumber string    `json:"meterNumber"`
	Address     string    `json:"address"`
	Usage       string    `json:"usage"`
	CreatedAt   time.Time `json:"created_at"`
}

// SubmitEnrolementResponse resultado del envío.
// Status: committed (201) o local_only (202, con Error).
type SubmitEnrolementResponse struct {
	Status     string             `json:"status"`
	LocalID    string             `json:"local_id"`
	Enrolement EnrolementResponse `json:"enrolement"`
	Message    string             `json:"message,omitempty"`
	Error      *ErrorResponse     `json:"error,omitempty"`
}

// LocalEnrolementResponse copia local con su estado de sincronización.
type LocalEnrolementResponse struct {
	EnrolementResponse
	LocalID    string     `json:"local_id"`
	RemoteID   string     `json:"remote_id,omitempty"`
	SyncStatus string     `json:"sync_status"`
	SyncError  string     `json:"sync_error,omitempty"`
	SyncedAt   *time.Time `json:"synced_at,omitempty"`
}

// RetryReportResponse resultado de POST /api/local/sync.
type RetryReportResponse struct {
	Attempted int `json:"attempted"`
	Committed int `json:"committed"`
	Failed    int `json:"failed"`
}

// ToEnrolementResponse mapea la entidad.
func ToEnrolementResponse(e entity.Enrolement) EnrolementResponse {
	return EnrolementResponse{
		ID:          e.ID,
		Name:        e.Name,
		Phone:       e.Phone,
		Email:       e.Email,
		MeterType:   string(e.MeterType),
		MeterNumber: e.MeterNumber,
		Address:     e.Address,
		Usage:       string(e.Usage),
		CreatedAt:   e.CreatedAt,
	}
}

// ToEnrolementResponses mapea una colección conservando el orden.
func ToEnrolementResponses(list []entity.Enrolement) []EnrolementResponse {
	out := make([]EnrolementResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToEnrolementResponse(e))
	}
	return out
}

// ToLocalEnrolementResponse mapea la copia local; id es el efectivo (remoto si existe).
func ToLocalEnrolementResponse(l entity.LocalEnrolement) LocalEnrolementResponse {
	base := ToEnrolementResponse(l.Enrolement)
	base.ID = l.EffectiveID()
	return LocalEnrolementResponse{
		EnrolementResponse: base,
		LocalID:            l.LocalID,
		RemoteID:           l.ID,
		SyncStatus:         string(l.SyncStatus),
		SyncError:          l.SyncError,
		SyncedAt:           l.SyncedAt,
	}
}

// ToLocalEnrolementResponses mapea el registro local en orden de inserción.
func ToLocalEnrolementResponses(list []entity.LocalEnrolement) []LocalEnrolementResponse {
	out := make([]LocalEnrolementResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ToLocalEnrolementResponse(l))
	}
	return out
}
