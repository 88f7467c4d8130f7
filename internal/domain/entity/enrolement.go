package entity

import (
	"fmt"
	"time"
)

// MeterType tipo de compteur.
type MeterType string

const (
	MeterPrepaid  MeterType = "prepaid"
	MeterPostpaid MeterType = "postpaid"
)

// MeterTypes lista cerrada de tipos de compteur, en orden de presentación.
var MeterTypes = []MeterType{MeterPrepaid, MeterPostpaid}

// IsValid indica si el valor pertenece al conjunto cerrado.
func (m MeterType) IsValid() bool {
	return m == MeterPrepaid || m == MeterPostpaid
}

// Usage domaine d'utilisation del compteur.
type Usage string

const (
	UsageDomicile    Usage = "domicile"
	UsageEntreprise  Usage = "entreprise"
	UsageCampagne    Usage = "campagne"
	UsageAppartement Usage = "appartement"
)

// IsValid indica si el valor pertenece al conjunto cerrado.
func (u Usage) IsValid() bool {
	switch u {
	case UsageDomicile, UsageEntreprise, UsageCampagne, UsageAppartement:
		return true
	}
	return false
}

// Enrolement representa un enrôlement (cliente + compteur). Inmutable una vez creado.
// ID lo asigna el almacén remoto; en copias locales no sincronizadas queda vacío.
type Enrolement struct {
	ID          string
	Name        string
	Phone       string
	Email       string
	MeterType   MeterType
	MeterNumber string
	Address     string // quartier
	Usage       Usage
	CreatedAt   time.Time
}

// SyncStatus estado de sincronización de la copia local.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncCommitted SyncStatus = "committed"
	SyncFailed    SyncStatus = "failed"
)

// LocalEnrolement copia local de un enrôlement con sus metadatos de sincronización.
type LocalEnrolement struct {
	Enrolement
	LocalID    string
	SyncStatus SyncStatus
	SyncError  string
	SyncedAt   *time.Time
}

// EffectiveID devuelve el id remoto si ya fue confirmado, si no el id local.
func (l *LocalEnrolement) EffectiveID() string {
	if l.ID != "" {
		return l.ID
	}
	return l.LocalID
}

// NewLocalID construye el id local de respaldo: {unixMillis}-{aleatorio}.
func NewLocalID(now time.Time, random int) string {
	return fmt.Sprintf("%d-%d", now.UnixMilli(), random)
}
