package balance

import (
	"context"
	"database/sql"
	"errors"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/shared/pgerror"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry is one (leave type, days) pair of an entitlement set.
type Entry struct {
	LeaveTypeID uint
	Days        int
}

// Sufficiency is the proof returned by CheckSufficient. Deduct only accepts
// a proof obtained inside the same transaction; the zero value is rejected.
type Sufficiency struct {
	balanceID   uint
	employeeID  uint
	leaveTypeID uint
	days        int
	available   int
}

func (s Sufficiency) Available() int { return s.available }
func (s Sufficiency) Days() int      { return s.days }

// Ledger is the only writer of leave balances. Bind it to the caller's
// transaction with WithTx before use; the balance row stays locked until
// that transaction ends.
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	CheckSufficient(ctx context.Context, employeeID, leaveTypeID uint, days int) (Sufficiency, error)
	Deduct(ctx context.Context, proof Sufficiency) error
	ReplaceAll(ctx context.Context, employeeID uint, entries []Entry) error
}

type ledger struct {
	repo   Repository
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &ledger{repo: repo, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: l.repo.WithTx(tx), logger: l.logger}
}

func (l *ledger) CheckSufficient(ctx context.Context, employeeID, leaveTypeID uint, days int) (Sufficiency, error) {
	row, err := l.repo.FindForUpdate(ctx, employeeID, leaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.logger.Warn("balance row missing",
				zap.Uint("employee_id", employeeID),
				zap.Uint("leave_type_id", leaveTypeID),
			)
			return Sufficiency{}, balanceerrors.ErrBalanceNotFound
		}
		return Sufficiency{}, err
	}

	if row.Balance < days {
		l.logger.Debug("balance insufficient",
			zap.Uint("employee_id", employeeID),
			zap.Uint("leave_type_id", leaveTypeID),
			zap.Int("available", row.Balance),
			zap.Int("requested", days),
		)
		return Sufficiency{}, &balanceerrors.InsufficientBalanceError{
			Available: row.Balance,
			Requested: days,
		}
	}

	return Sufficiency{
		balanceID:   row.ID,
		employeeID:  employeeID,
		leaveTypeID: leaveTypeID,
		days:        days,
		available:   row.Balance,
	}, nil
}

func (l *ledger) Deduct(ctx context.Context, proof Sufficiency) error {
	if proof.balanceID == 0 {
		l.logger.Error("deduct called without sufficiency proof")
		return balanceerrors.ErrDeductWithoutCheck
	}

	affected, err := l.repo.Decrement(ctx, proof.balanceID, proof.days)
	if err != nil {
		return err
	}
	if affected == 0 {
		l.logger.Error("deduct would drive balance negative",
			zap.Uint("balance_id", proof.balanceID),
			zap.Int("days", proof.days),
		)
		return balanceerrors.ErrNegativeBalance
	}

	l.logger.Info("balance deducted",
		zap.Uint("employee_id", proof.employeeID),
		zap.Uint("leave_type_id", proof.leaveTypeID),
		zap.Int("days", proof.days),
		zap.Int("remaining", proof.available-proof.days),
	)
	return nil
}

func (l *ledger) ReplaceAll(ctx context.Context, employeeID uint, entries []Entry) error {
	rows := make([]LeaveBalance, 0, len(entries))
	keep := make([]uint, 0, len(entries))
	seen := make(map[uint]struct{}, len(entries))
	for _, e := range entries {
		if e.Days < 0 {
			return balanceerrors.ErrNegativeEntitlement
		}
		if _, dup := seen[e.LeaveTypeID]; dup {
			continue
		}
		seen[e.LeaveTypeID] = struct{}{}
		keep = append(keep, e.LeaveTypeID)
		rows = append(rows, LeaveBalance{
			EmployeeID:  employeeID,
			LeaveTypeID: e.LeaveTypeID,
			Balance:     e.Days,
		})
	}

	// Existing rows are updated in place and keep their ids.
	if err := l.repo.Upsert(ctx, rows); err != nil {
		return mapRepositoryError(err)
	}
	if err := l.repo.DeleteExcept(ctx, employeeID, keep); err != nil {
		return err
	}

	l.logger.Info("balances replaced",
		zap.Uint("employee_id", employeeID),
		zap.Int("entries", len(rows)),
	)
	return nil
}

func mapRepositoryError(err error) error {
	code, constraint, ok := pgerror.Violation(err)
	if !ok {
		return err
	}
	switch code {
	case pgerror.ForeignKeyViolation:
		if constraint == "leave_balances_employee_id_fkey" {
			return balanceerrors.ErrEmployeeNotFound
		}
		return balanceerrors.ErrUnknownLeaveType
	case pgerror.CheckViolation:
		return balanceerrors.ErrNegativeEntitlement
	}
	return err
}
