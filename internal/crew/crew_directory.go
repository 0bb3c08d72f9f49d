package crew

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go-crewperf/internal/similarity"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DirectoryKeyPrefix = "crew:directory:"
	directoryTTL       = 30 * time.Minute

	DefaultMatchCutoff = 0.90
)

func GetDirectoryKey(companyID string) string {
	return DirectoryKeyPrefix + companyID
}

// Directory resolves free-text crew member names to employees. It is an
// enrichment: callers carry on with the typed name when nothing matches.
type Directory interface {
	Members(ctx context.Context, companyID string) ([]Member, error)
	Resolve(ctx context.Context, companyID, name string) (Match, error)
	Invalidate(ctx context.Context, companyID string) error
}

type directory struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	cutoff float64
	logger *zap.Logger
}

func NewDirectory(repo Repository, rdb *redis.Client, cutoff float64, logger ...*zap.Logger) Directory {
	l := zap.L().Named("crew.directory")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("crew.directory")
	}
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultMatchCutoff
	}
	return &directory{repo: repo, rdb: rdb, sf: &singleflight.Group{}, cutoff: cutoff, logger: l}
}

func (d *directory) Members(ctx context.Context, companyID string) ([]Member, error) {
	cacheKey := GetDirectoryKey(companyID)

	if d.rdb != nil {
		if cached, err := d.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var members []Member
			if json.Unmarshal([]byte(cached), &members) == nil {
				return members, nil
			}
		}
	}

	v, err, _ := d.sf.Do(cacheKey, func() (interface{}, error) {
		employees, err := d.repo.FindActiveByCompany(ctx, companyID)
		if err != nil {
			return nil, err
		}

		members := make([]Member, 0, len(employees))
		for _, e := range employees {
			members = append(members, Member{EmployeeID: e.ID.String(), FullName: e.FullName})
		}

		if d.rdb != nil {
			if data, err := json.Marshal(members); err == nil {
				if err := d.rdb.Set(ctx, cacheKey, string(data), directoryTTL).Err(); err != nil {
					d.logger.Warn("cache crew directory failed", zap.String("key", cacheKey), zap.Error(err))
				}
			}
		}
		return members, nil
	})
	if err != nil {
		d.logger.Error("load crew directory failed", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	return v.([]Member), nil
}

// Resolve returns the best scoring member at or above the cutoff. Ties go
// to the alphabetically first name so the answer never depends on cache
// order.
func (d *directory) Resolve(ctx context.Context, companyID, name string) (Match, error) {
	if strings.TrimSpace(name) == "" {
		return Match{}, nil
	}

	members, err := d.Members(ctx, companyID)
	if err != nil {
		return Match{}, err
	}

	best := Match{}
	for _, m := range members {
		score := similarity.Score(name, m.FullName)
		if score < d.cutoff {
			continue
		}
		if !best.Found || score > best.Score || (score == best.Score && m.FullName < best.FullName) {
			best = Match{Found: true, EmployeeID: m.EmployeeID, FullName: m.FullName, Score: score}
		}
	}
	return best, nil
}

func (d *directory) Invalidate(ctx context.Context, companyID string) error {
	if d.rdb == nil {
		return nil
	}
	return d.rdb.Del(ctx, GetDirectoryKey(companyID)).Err()
}
