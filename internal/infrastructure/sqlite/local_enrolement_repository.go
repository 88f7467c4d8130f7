// Package sqlite implementa el registro local de envíos sobre SQLite (modernc, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jhoicas/Enrolement-api/internal/domain"
	"github.com/jhoicas/Enrolement-api/internal/domain/entity"
	"github.com/jhoicas/Enrolement-api/internal/domain/repository"
)

const driverName = "sqlite"

var _ repository.LocalEnrolementRepository = (*LocalEnrolementRepo)(nil)

// LocalEnrolementRepo implementación de LocalEnrolementRepository.
// Es el único dueño del archivo: las escrituras pasan por mu y por una transacción.
type LocalEnrolementRepo struct {
	db *sqlx.DB
	mu sync.Mutex
}

// localRow fila de local_enrolements. Las fechas se guardan como RFC3339Nano.
type localRow struct {
	LocalID     string         `db:"local_id"`
	RemoteID    sql.NullString `db:"remote_id"`
	Name        string         `db:"name"`
	Phone       string         `db:"phone"`
	Email       string         `db:"email"`
	MeterType   string         `db:"meter_type"`
	MeterNumber string         `db:"meter_number"`
	Address     string         `db:"address"`
	Usage       string         `db:"usage"`
	CreatedAt   string         `db:"created_at"`
	SyncStatus  string         `db:"sync_status"`
	SyncError   string         `db:"sync_error"`
	SyncedAt    sql.NullString `db:"synced_at"`
}

const selectColumns = `local_id, remote_id, name, phone, email, meter_type, meter_number,
	address, usage, created_at, sync_status, sync_error, synced_at`

// Open crea el directorio si hace falta, aplica migraciones y abre el repositorio.
func Open(path string) (*LocalEnrolementRepo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("crear directorio de la base local: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir base local: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping base local: %w", err)
	}
	return &LocalEnrolementRepo{db: db}, nil
}

// Close cierra la base.
func (r *LocalEnrolementRepo) Close() error {
	return r.db.Close()
}

// Append agrega una copia nueva al final del registro.
// Un local_id ya presente devuelve un error que envuelve domain.ErrDuplicate.
func (r *LocalEnrolementRepo) Append(ctx context.Context, rec *entity.LocalEnrolement) error {
	row := toRow(rec)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO local_enrolements (local_id, remote_id, name, phone, email, meter_type, meter_number,
			address, usage, created_at, sync_status, sync_error, synced_at)
		VALUES (:local_id, :remote_id, :name, :phone, :email, :meter_type, :meter_number,
			:address, :usage, :created_at, :sync_status, :sync_error, :synced_at)`, row)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert local enrolement %s: %w: %w", rec.LocalID, domain.ErrDuplicate, err)
	}
	if err != nil {
		return fmt.Errorf("insert local enrolement: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// List devuelve todas las copias en orden de inserción.
func (r *LocalEnrolementRepo) List(ctx context.Context) ([]entity.LocalEnrolement, error) {
	return r.selectMany(ctx, `SELECT `+selectColumns+` FROM local_enrolements ORDER BY seq`)
}

// ListUnsynced devuelve las copias pending o failed, más antiguas primero.
func (r *LocalEnrolementRepo) ListUnsynced(ctx context.Context) ([]entity.LocalEnrolement, error) {
	return r.selectMany(ctx, `SELECT `+selectColumns+` FROM local_enrolements
		WHERE sync_status IN ('pending', 'failed') ORDER BY seq`)
}

// GetByLocalID obtiene una copia por id local.
func (r *LocalEnrolementRepo) GetByLocalID(ctx context.Context, localID string) (*entity.LocalEnrolement, error) {
	var row localRow
	err := r.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM local_enrolements WHERE local_id = ?`, localID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get local enrolement: %w", err)
	}
	rec, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Remove borra una copia local. domain.ErrNotFound si no existe.
func (r *LocalEnrolementRepo) Remove(ctx context.Context, localID string) error {
	return r.write(ctx, "delete local enrolement", `DELETE FROM local_enrolements WHERE local_id = ?`, localID)
}

// MarkCommitted registra el id y created_at asignados por el almacén remoto.
func (r *LocalEnrolementRepo) MarkCommitted(ctx context.Context, localID, remoteID string, createdAt, syncedAt time.Time) error {
	return r.write(ctx, "mark committed", `
		UPDATE local_enrolements
		SET remote_id = ?, created_at = ?, sync_status = 'committed', sync_error = '', synced_at = ?
		WHERE local_id = ?`,
		remoteID, formatTime(createdAt), formatTime(syncedAt), localID)
}

// MarkFailed deja la copia en failed con el motivo del último intento.
func (r *LocalEnrolementRepo) MarkFailed(ctx context.Context, localID, reason string) error {
	return r.write(ctx, "mark failed", `
		UPDATE local_enrolements SET sync_status = 'failed', sync_error = ?
		WHERE local_id = ? AND sync_status <> 'committed'`,
		reason, localID)
}

// write ejecuta una sentencia de una fila dentro de una transacción; 0 filas = ErrNotFound.
func (r *LocalEnrolementRepo) write(ctx context.Context, op, query string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

func (r *LocalEnrolementRepo) selectMany(ctx context.Context, query string) ([]entity.LocalEnrolement, error) {
	var rows []localRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list local enrolements: %w", err)
	}
	out := make([]entity.LocalEnrolement, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRow(rec *entity.LocalEnrolement) localRow {
	status := rec.SyncStatus
	if status == "" {
		status = entity.SyncPending
	}
	row := localRow{
		LocalID:     rec.LocalID,
		RemoteID:    sql.NullString{String: rec.ID, Valid: rec.ID != ""},
		Name:        rec.Name,
		Phone:       rec.Phone,
		Email:       rec.Email,
		MeterType:   string(rec.MeterType),
		MeterNumber: rec.MeterNumber,
		Address:     rec.Address,
		Usage:       string(rec.Usage),
		CreatedAt:   formatTime(rec.CreatedAt),
		SyncStatus:  string(status),
		SyncError:   rec.SyncError,
	}
	if rec.SyncedAt != nil {
		row.SyncedAt = sql.NullString{String: formatTime(*rec.SyncedAt), Valid: true}
	}
	return row
}

func (row localRow) toEntity() (entity.LocalEnrolement, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return entity.LocalEnrolement{}, fmt.Errorf("local enrolement %s: created_at: %w", row.LocalID, err)
	}
	rec := entity.LocalEnrolement{
		Enrolement: entity.Enrolement{
			ID:          row.RemoteID.String,
			Name:        row.Name,
			Phone:       row.Phone,
			Email:       row.Email,
			MeterType:   entity.MeterType(row.MeterType),
			MeterNumber: row.MeterNumber,
			Address:     row.Address,
			Usage:       entity.Usage(row.Usage),
			CreatedAt:   createdAt,
		},
		LocalID:    row.LocalID,
		SyncStatus: entity.SyncStatus(row.SyncStatus),
		SyncError:  row.SyncError,
	}
	if row.SyncedAt.Valid {
		syncedAt, err := time.Parse(time.RFC3339Nano, row.SyncedAt.String)
		if err != nil {
			return entity.LocalEnrolement{}, fmt.Errorf("local enrolement %s: synced_at: %w", row.LocalID, err)
		}
		rec.SyncedAt = &syncedAt
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
