package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/repositories"
)

// noChanges is shown for rows without a change payload.
const noChanges = "Немає змін"

// AuditLogEntry is an audit row with its changes rendered for display.
type AuditLogEntry struct {
	models.AuditLog
	ChangesDisplay string `json:"changesDisplay"`
}

// AuditService is the read side of the audit trail.
type AuditService interface {
	ListAuditLogs(ctx context.Context, filter repositories.AuditLogFilter) ([]AuditLogEntry, int64, error)
	GetAuditLog(ctx context.Context, id int64) (*AuditLogEntry, error)
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates an AuditService.
func NewAuditService(db *gorm.DB) AuditService {
	return &auditService{db: db}
}

func (s *auditService) ListAuditLogs(ctx context.Context, filter repositories.AuditLogFilter) ([]AuditLogEntry, int64, error) {
	rows, total, err := repositories.NewGormAuditLogRepository(s.db).List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]AuditLogEntry, len(rows))
	for i, row := range rows {
		entries[i] = AuditLogEntry{AuditLog: row, ChangesDisplay: ChangesDisplay(row)}
	}
	return entries, total, nil
}

func (s *auditService) GetAuditLog(ctx context.Context, id int64) (*AuditLogEntry, error) {
	row, err := repositories.NewGormAuditLogRepository(s.db).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, ErrAuditLogNotFound
	} else if err != nil {
		return nil, err
	}
	return &AuditLogEntry{AuditLog: *row, ChangesDisplay: ChangesDisplay(*row)}, nil
}

// ChangesDisplay renders the "new" values of a row as "field: old → new"
// lines, one per field whose value differs from "old". Fields absent from
// "old" show "—".
func ChangesDisplay(row models.AuditLog) string {
	if len(row.Changes) == 0 {
		return noChanges
	}
	var payload struct {
		Old map[string]any `json:"old"`
		New map[string]any `json:"new"`
	}
	if err := json.Unmarshal(row.Changes, &payload); err != nil {
		return string(row.Changes)
	}
	if len(payload.Old) == 0 && len(payload.New) == 0 {
		return noChanges
	}

	fields := make([]string, 0, len(payload.New))
	for field := range payload.New {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		newValue := payload.New[field]
		oldValue, ok := payload.Old[field]
		if ok && reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		old := "—"
		if ok {
			old = displayValue(oldValue)
		}
		lines = append(lines, fmt.Sprintf("%s: %s → %s", field, old, displayValue(newValue)))
	}
	return strings.Join(lines, "\n")
}

func displayValue(v any) string {
	switch typed := v.(type) {
	case nil:
		return "—"
	case string:
		return typed
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
	}
	return fmt.Sprint(v)
}
