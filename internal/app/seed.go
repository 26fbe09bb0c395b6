package app

import (
	"context"
	"errors"

	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/internal/services"
)

// DefaultRanks are the ranks of the Armed Forces in seniority order.
var DefaultRanks = []models.RankPayload{
	{Name: "Солдат", SortOrder: 1},
	{Name: "Старший солдат", SortOrder: 2},
	{Name: "Молодший сержант", SortOrder: 3},
	{Name: "Сержант", SortOrder: 4},
	{Name: "Старший сержант", SortOrder: 5},
	{Name: "Головний сержант", SortOrder: 6},
	{Name: "Штаб-сержант", SortOrder: 7},
	{Name: "Майстер-сержант", SortOrder: 8},
	{Name: "Старший майстер-сержант", SortOrder: 9},
	{Name: "Головний майстер-сержант", SortOrder: 10},
	{Name: "Молодший лейтенант", SortOrder: 11},
	{Name: "Лейтенант", SortOrder: 12},
	{Name: "Старший лейтенант", SortOrder: 13},
	{Name: "Капітан", SortOrder: 14},
	{Name: "Майор", SortOrder: 15},
	{Name: "Підполковник", SortOrder: 16},
	{Name: "Полковник", SortOrder: 17},
	{Name: "Бригадний генерал", SortOrder: 18},
	{Name: "Генерал-майор", SortOrder: 19},
	{Name: "Генерал-лейтенант", SortOrder: 20},
	{Name: "Генерал", SortOrder: 21},
}

// DefaultSpecialties are the common military occupational specialties (ВОС).
var DefaultSpecialties = []models.SpecialtyPayload{
	{Code: "100100", Name: "Стрілець"},
	{Code: "100101", Name: "Кулеметник"},
	{Code: "100102", Name: "Гранатометник"},
	{Code: "100103", Name: "Снайпер"},
	{Code: "100200", Name: "Командир відділення"},
	{Code: "100300", Name: "Командир взводу"},
	{Code: "100400", Name: "Командир роти"},
	{Code: "100500", Name: "Командир батальйону"},
	{Code: "200100", Name: "Механік-водій БМП"},
	{Code: "200200", Name: "Навідник-оператор"},
	{Code: "300100", Name: "Зв'язківець"},
	{Code: "300200", Name: "Радіотелефоніст"},
	{Code: "400100", Name: "Санітарний інструктор"},
	{Code: "400200", Name: "Фельдшер"},
	{Code: "500100", Name: "Кухар"},
	{Code: "500200", Name: "Водій"},
	{Code: "600100", Name: "Інженер-сапер"},
	{Code: "700100", Name: "Артилерист"},
	{Code: "800100", Name: "Оператор БПЛА"},
	{Code: "900100", Name: "Штабний офіцер"},
}

// SeedResult counts rows created by Seed; existing rows are left untouched.
type SeedResult struct {
	Ranks       int  `json:"ranks"`
	Specialties int  `json:"specialties"`
	Admin       bool `json:"adminCreated"`
}

// Seed loads the reference data and, when admin.Username is set, an admin
// account. It can be re-run safely.
func Seed(ctx context.Context, svc *Services, admin services.NewUser) (*SeedResult, error) {
	res := &SeedResult{}
	for _, r := range DefaultRanks {
		_, err := svc.Staffing.CreateRank(ctx, audit.System, r)
		if errors.Is(err, services.ErrConflict) {
			continue
		} else if err != nil {
			return nil, err
		}
		res.Ranks++
	}
	for _, s := range DefaultSpecialties {
		_, err := svc.Staffing.CreateSpecialty(ctx, audit.System, s)
		if errors.Is(err, services.ErrConflict) {
			continue
		} else if err != nil {
			return nil, err
		}
		res.Specialties++
	}
	if admin.Username != "" {
		admin.Role = models.RoleAdmin
		_, err := svc.Auth.CreateUser(ctx, audit.System, admin)
		switch {
		case err == nil:
			res.Admin = true
		case !errors.Is(err, services.ErrUsernameExists):
			return nil, err
		}
	}
	return res, nil
}
