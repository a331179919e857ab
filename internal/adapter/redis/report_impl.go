package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/user/audit-service/internal/entity"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/pkg/utils"
)

const (
	reportKeyPrefix   = "audit:report:"
	reportIndexKey    = "audit:reports"
	targetIndexPrefix = "audit:reports:target:"
)

// ReportRepoImpl stores reports as JSON strings and indexes their ids in Redis lists.
type ReportRepoImpl struct {
	client *redis.Client
}

// NewReportRepo creates a new instance of ReportRepoImpl.
func NewReportRepo(client *redis.Client) *ReportRepoImpl {
	return &ReportRepoImpl{client: client}
}

func targetIndexKey(targetURL string) string {
	return fmt.Sprintf("%s%s", targetIndexPrefix, utils.HashURL(targetURL))
}

// Put stores report and pushes its id onto the left of both index lists.
func (r *ReportRepoImpl) Put(ctx context.Context, report *entity.AuditReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	// SETNX keeps stored reports immutable.
	ok, err := r.client.SetNX(ctx, reportKeyPrefix+report.ID, payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrDuplicateID
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, reportIndexKey, report.ID)
		pipe.LPush(ctx, targetIndexKey(report.Target), report.ID)
		return nil
	})
	if err != nil {
		// an unindexed report must not stay readable
		if delErr := r.client.Del(context.WithoutCancel(ctx), reportKeyPrefix+report.ID).Err(); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}
	return nil
}

func (r *ReportRepoImpl) Get(ctx context.Context, id string) (*entity.AuditReport, error) {
	payload, err := r.client.Get(ctx, reportKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	var report entity.AuditReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepoImpl) List(ctx context.Context) ([]*entity.AuditReport, error) {
	return r.listIndex(ctx, reportIndexKey)
}

func (r *ReportRepoImpl) ListByTarget(ctx context.Context, targetURL string) ([]*entity.AuditReport, error) {
	reports, err := r.listIndex(ctx, targetIndexKey(targetURL))
	if err != nil {
		return nil, err
	}
	// the index key is a hash; guard against collisions
	out := reports[:0]
	for _, report := range reports {
		if report.Target == targetURL {
			out = append(out, report)
		}
	}
	return out, nil
}

func (r *ReportRepoImpl) listIndex(ctx context.Context, key string) ([]*entity.AuditReport, error) {
	ids, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	reports := make([]*entity.AuditReport, 0, len(ids))
	if len(ids) == 0 {
		return reports, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reportKeyPrefix + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var report entity.AuditReport
		if err := json.Unmarshal([]byte(s), &report); err != nil {
			return nil, err
		}
		reports = append(reports, &report)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}
