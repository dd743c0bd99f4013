package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/jlpt-api/internal/domain/entity"
	"github.com/yourusername/jlpt-api/internal/domain/repository"
	apperrors "github.com/yourusername/jlpt-api/internal/pkg/errors"
	"github.com/yourusername/jlpt-api/internal/pkg/export"
)

// MaxExportRows ограничивает размер выгрузки попыток
const MaxExportRows = 10000

// DashboardStats - сводка для админ-панели
type DashboardStats struct {
	TotalUsers        int64            `json:"total_users"`
	PremiumUsers      int64            `json:"premium_users"`
	TotalAttempts     int64            `json:"total_attempts"`
	AttemptsLast7Days int64            `json:"attempts_last_7_days"`
	AveragePercentage float64          `json:"average_percentage"`
	Codes             map[string]int64 `json:"codes"`
}

// AdminService - статистика, управление пользователями и выгрузки
type AdminService struct {
	userRepo    repository.UserRepository
	attemptRepo repository.AttemptRepository
	codeRepo    repository.RedeemCodeRepository
	now         func() time.Time
	log         *zap.Logger
}

// NewAdminService создает новый сервис администрирования
func NewAdminService(
	userRepo repository.UserRepository,
	attemptRepo repository.AttemptRepository,
	codeRepo repository.RedeemCodeRepository,
	log *zap.Logger,
) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		codeRepo:    codeRepo,
		now:         time.Now,
		log:         log.Named("AdminService"),
	}
}

// DashboardStats выполняет запросы статистики параллельно
func (s *AdminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	stats := &DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats.TotalUsers, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PremiumUsers, err = s.userRepo.CountPremium(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalAttempts, err = s.attemptRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.AttemptsLast7Days, err = s.attemptRepo.CountSince(gctx, now.AddDate(0, 0, -7))
		return err
	})
	g.Go(func() error {
		var err error
		stats.AveragePercentage, err = s.attemptRepo.AveragePercentage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Codes, err = s.codeRepo.CountByState(gctx, now)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Ошибка получения статистики", zap.Error(err))
		return nil, err
	}
	return stats, nil
}

// ListUsers возвращает страницу пользователей
func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter, page, pageSize int) ([]entity.User, int64, error) {
	if filter.Role != "" && !isValidRole(filter.Role) {
		return nil, 0, apperrors.NewValidationError("role", filter.Role, "")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.userRepo.List(ctx, filter, pageSize, (page-1)*pageSize)
}

// UpdateUserRole меняет роль пользователя. Администратор не может снять роль с самого себя.
func (s *AdminService) UpdateUserRole(ctx context.Context, actorID, userID uint, role string) error {
	if !isValidRole(role) {
		return apperrors.NewValidationError("role", role, "must be user or admin")
	}
	if actorID == userID && role != entity.RoleAdmin {
		return apperrors.ErrForbidden
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}
	s.log.Info("Роль пользователя изменена", zap.Uint("actor_id", actorID), zap.Uint("user_id", userID), zap.String("role", role))
	return nil
}

// ExportAttempts готовит таблицу последних попыток
func (s *AdminService) ExportAttempts(ctx context.Context) (export.Table, error) {
	attempts, err := s.attemptRepo.ListAll(ctx, MaxExportRows)
	if err != nil {
		return export.Table{}, err
	}

	table := export.Table{
		Sheet: "Attempts",
		Header: []string{"ID", "User ID", "Kind", "Type", "Level", "Sections", "Time mode", "Time limit (min)",
			"Total", "Correct", "Incorrect", "Unanswered", "Percentage", "Status", "Created at"},
		Rows: make([][]string, 0, len(attempts)),
	}
	for _, a := range attempts {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(a.ID), 10),
			strconv.FormatUint(uint64(a.UserID), 10),
			a.ExamKind,
			a.ExamType,
			a.Level,
			joinSections(a.Sections),
			a.TimeMode,
			strconv.Itoa(a.TimeLimitMin),
			strconv.Itoa(a.TotalQuestions),
			strconv.Itoa(a.CorrectCount),
			strconv.Itoa(a.IncorrectCount),
			strconv.Itoa(a.UnansweredCount),
			strconv.Itoa(a.Percentage),
			a.Status,
			a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return table, nil
}

// ExportCodes готовит таблицу всех кодов активации с их состоянием
func (s *AdminService) ExportCodes(ctx context.Context) (export.Table, error) {
	now := s.now()
	codes, _, err := s.codeRepo.List(ctx, repository.CodeFilter{Now: now}, 0, 0)
	if err != nil {
		return export.Table{}, err
	}
	return CodesTable(codes, now), nil
}

// CodesTable строит таблицу выгрузки кодов
func CodesTable(codes []entity.RedeemCode, now time.Time) export.Table {
	table := export.Table{
		Sheet:  "Codes",
		Header: []string{"Code", "Plan days", "State", "Redeemed by", "Redeemed at", "Expires at", "Created at"},
		Rows:   make([][]string, 0, len(codes)),
	}
	for _, c := range codes {
		redeemedBy := ""
		if c.RedeemedBy != nil {
			redeemedBy = strconv.FormatUint(uint64(*c.RedeemedBy), 10)
		}
		table.Rows = append(table.Rows, []string{
			c.Code,
			strconv.Itoa(c.PlanDays),
			c.State(now),
			redeemedBy,
			formatOptionalTime(c.RedeemedAt),
			formatOptionalTime(c.ExpiresAt),
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return table
}

func isValidRole(role string) bool {
	return role == entity.RoleUser || role == entity.RoleAdmin
}

func joinSections(sections entity.StringArray) string {
	if len(sections) == 0 {
		return "all"
	}
	return strings.Join(sections, ",")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
