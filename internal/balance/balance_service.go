package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const BalancesKeyPrefix = "balances:employee:"

func GetBalancesKey(employeeID uint) string {
	return BalancesKeyPrefix + strconv.FormatUint(uint64(employeeID), 10)
}

type Service interface {
	GetByEmployee(ctx context.Context, employeeID uint) ([]BalanceResponse, error)
	Replace(ctx context.Context, employeeID uint, req ReplaceBalancesRequest) ([]BalanceResponse, error)
	Invalidate(ctx context.Context, employeeID uint)
}

type service struct {
	db     *sql.DB
	repo   Repository
	ledger Ledger
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, ledger Ledger, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		ledger: ledger,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetByEmployee(ctx context.Context, employeeID uint) ([]BalanceResponse, error) {
	cacheKey := GetBalancesKey(employeeID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		exists, err := s.repo.EmployeeExists(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, balanceerrors.ErrEmployeeNotFound
		}

		rows, err := s.repo.FindByEmployee(ctx, employeeID)
		if err != nil {
			s.logger.Error("get balances failed", zap.Uint("employee_id", employeeID), zap.Error(err))
			return nil, err
		}
		resp := mapToListResponse(rows)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 10*time.Minute)
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]BalanceResponse), nil
}

func (s *service) Replace(ctx context.Context, employeeID uint, req ReplaceBalancesRequest) ([]BalanceResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("replace balances requested",
		zap.String("request_id", rid),
		zap.Uint("employee_id", employeeID),
		zap.Int("entries", len(req.Balances)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("replace balances begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	exists, err := qtx.EmployeeExists(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, balanceerrors.ErrEmployeeNotFound
	}

	if err := s.ledger.WithTx(tx).ReplaceAll(ctx, employeeID, ToEntries(req.Balances)); err != nil {
		s.logger.Warn("replace balances failed", zap.Uint("employee_id", employeeID), zap.Error(err))
		return nil, err
	}

	rows, err := qtx.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("replace balances commit failed", zap.String("request_id", rid), zap.Error(err))
		return nil, err
	}
	s.Invalidate(ctx, employeeID)

	s.logger.Info("replace balances success",
		zap.String("request_id", rid),
		zap.Uint("employee_id", employeeID),
	)
	return mapToListResponse(rows), nil
}

func (s *service) Invalidate(ctx context.Context, employeeID uint) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetBalancesKey(employeeID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

// ToEntries converts request payload entries into ledger entries.
func ToEntries(reqs []BalanceEntryRequest) []Entry {
	entries := make([]Entry, 0, len(reqs))
	for _, r := range reqs {
		days := 0
		if r.Balance != nil {
			days = *r.Balance
		}
		entries = append(entries, Entry{LeaveTypeID: r.LeaveTypeID, Days: days})
	}
	return entries
}

func mapToListResponse(rows []BalanceRow) []BalanceResponse {
	resp := make([]BalanceResponse, len(rows))
	for i, r := range rows {
		resp[i] = BalanceResponse{
			LeaveTypeID:   r.LeaveTypeID,
			LeaveTypeName: r.LeaveTypeName,
			Balance:       r.Balance,
		}
	}
	return resp
}
