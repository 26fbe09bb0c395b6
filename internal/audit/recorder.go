// Package audit records create, update, delete and view events of entities
// that opt in by implementing Auditable.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/pkg/metrics"
)

// Auditable is implemented by entities whose persistence is audited.
// AuditFields returns raw field values keyed by column name; the recorder
// serializes them.
type Auditable interface {
	AuditType() string
	AuditID() int64
	String() string
	AuditFields() map[string]any
}

// Preloader lists associations to load so references serialize to their
// display strings.
type Preloader interface {
	AuditPreloads() []string
}

// Sensitive lists fields whose changes get an extra CRITICAL row.
type Sensitive interface {
	SensitiveFields() []string
}

// ErrNotPersisted is returned when an operation needs a stored entity but the
// entity has no identity.
var ErrNotPersisted = errors.New("audit: entity has no identity")

// Recorder wraps persistence of Auditable entities with audit rows written in
// the same transaction.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a Recorder stamping rows with the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Save creates or updates entity. A create writes CREATE {new}; an update
// writes UPDATE {old, new} restricted to changed fields, or nothing when no
// field changed. Any failure rolls back the save.
func (r *Recorder) Save(tx *gorm.DB, actx Context, entity Auditable) error {
	return tx.Transaction(func(tx *gorm.DB) error {
		var before map[string]any
		if entity.AuditID() != 0 {
			_, snap, err := r.snapshot(tx, entity)
			switch {
			case err == nil:
				before = snap
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Save(entity).Error; err != nil {
			return err
		}

		saved, after, err := r.snapshot(tx, entity)
		if err != nil {
			return fmt.Errorf("audit: reload %s #%d: %w", entity.AuditType(), entity.AuditID(), err)
		}

		if before == nil {
			return r.write(tx, actx, models.AuditCreate, saved, map[string]any{"new": after}, models.SeverityInfo, "")
		}

		oldChanged, newChanged := Diff(before, after)
		if len(newChanged) == 0 {
			return nil
		}
		if err := r.write(tx, actx, models.AuditUpdate, saved, map[string]any{"old": oldChanged, "new": newChanged}, models.SeverityInfo, ""); err != nil {
			return err
		}

		sensitive, ok := entity.(Sensitive)
		if !ok {
			return nil
		}
		for _, field := range sensitive.SensitiveFields() {
			if _, changed := newChanged[field]; !changed {
				continue
			}
			changes := map[string]any{"field": field, "old": oldChanged[field], "new": newChanged[field]}
			note := fmt.Sprintf("Зміна чутливого поля: '%s'", field)
			if err := r.write(tx, actx, models.AuditUpdate, saved, changes, models.SeverityCritical, note); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete writes DELETE {deleted} with the stored field values and then
// deletes entity. Both happen in one transaction.
func (r *Recorder) Delete(tx *gorm.DB, actx Context, entity Auditable) error {
	if entity.AuditID() == 0 {
		return ErrNotPersisted
	}
	return tx.Transaction(func(tx *gorm.DB) error {
		stored, snap, err := r.snapshot(tx, entity)
		if err != nil {
			return err
		}
		if err := r.write(tx, actx, models.AuditDelete, stored, map[string]any{"deleted": snap}, models.SeverityInfo, ""); err != nil {
			return err
		}
		res := tx.Delete(entity)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Viewed writes a VIEW row. It never fails; problems are logged and dropped.
func (r *Recorder) Viewed(db *gorm.DB, actx Context, entity Auditable) {
	if entity == nil || entity.AuditID() == 0 {
		return
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		stored, _, err := r.snapshot(tx, entity)
		if err != nil {
			return err
		}
		return r.write(tx, actx, models.AuditView, stored, nil, models.SeverityInfo, "")
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"object_type": entity.AuditType(),
			"object_id":   entity.AuditID(),
		}).Warn("view audit skipped")
	}
}

// Log writes a free-form row, e.g. LOGIN, LOGOUT or EXPORT. entity may be nil.
func (r *Recorder) Log(tx *gorm.DB, actx Context, action string, entity Auditable, changes any, severity, notes string) error {
	if severity == "" {
		severity = models.SeverityInfo
	}
	return r.write(tx, actx, action, entity, changes, severity, notes)
}

// Diff returns the entries of before and after whose values differ, over the
// union of both key sets. A key missing on one side compares as nil.
func Diff(before, after map[string]any) (map[string]any, map[string]any) {
	keys := make(map[string]struct{}, len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	oldChanged := map[string]any{}
	newChanged := map[string]any{}
	for k := range keys {
		if !reflect.DeepEqual(before[k], after[k]) {
			oldChanged[k] = before[k]
			newChanged[k] = after[k]
		}
	}
	return oldChanged, newChanged
}

// snapshot fetches the stored state of entity by identity and serializes it.
func (r *Recorder) snapshot(tx *gorm.DB, entity Auditable) (Auditable, map[string]any, error) {
	if entity.AuditID() == 0 {
		return nil, nil, ErrNotPersisted
	}
	t := reflect.TypeOf(entity)
	if t.Kind() != reflect.Pointer {
		return nil, nil, fmt.Errorf("audit: %T must be a pointer", entity)
	}
	fresh, ok := reflect.New(t.Elem()).Interface().(Auditable)
	if !ok {
		return nil, nil, fmt.Errorf("audit: %T does not implement Auditable", entity)
	}

	q := tx
	if p, ok := entity.(Preloader); ok {
		for _, assoc := range p.AuditPreloads() {
			q = q.Preload(assoc)
		}
	}
	if err := q.First(fresh, entity.AuditID()).Error; err != nil {
		return nil, nil, err
	}
	return fresh, SerializeFields(fresh.AuditFields()), nil
}

func (r *Recorder) write(tx *gorm.DB, actx Context, action string, entity Auditable, changes any, severity, notes string) error {
	row := models.AuditLog{
		UserID:     actx.UserID,
		Action:     action,
		Timestamp:  r.now(),
		IPAddress:  actx.IPAddress,
		UserAgent:  actx.UserAgent,
		SessionKey: actx.SessionKey,
		Severity:   severity,
		Notes:      notes,
	}
	if entity != nil && !isNil(entity) {
		row.ObjectType = entity.AuditType()
		if id := entity.AuditID(); id != 0 {
			row.ObjectID = &id
		}
		row.ObjectRepr = truncate(entity.String(), 255)
	}
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("audit: encode changes: %w", err)
		}
		row.Changes = datatypes.JSON(b)
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("audit: write %s row: %w", action, err)
	}
	metrics.AuditRecords.WithLabelValues(action, severity).Inc()
	return nil
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
