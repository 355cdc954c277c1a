package leavetype

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const LeaveTypesKey = "leave_types:all"

type Service interface {
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, LeaveTypesKey).Result(); err == nil {
			var resp []LeaveTypeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(LeaveTypesKey, func() (interface{}, error) {
		types, err := s.repo.FindAll(ctx)
		if err != nil {
			s.logger.Error("get leave types failed", zap.Error(err))
			return nil, err
		}

		resp := mapToListResponse(types)

		// Reference data; an hour is plenty.
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, LeaveTypesKey, jsonData, 1*time.Hour)
			}
		}

		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]LeaveTypeResponse), nil
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		resp[i] = LeaveTypeResponse{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			ValidFrom:   t.ValidFrom.Format("2006-01-02"),
			ValidTo:     t.ValidTo.Format("2006-01-02"),
		}
	}
	return resp
}
