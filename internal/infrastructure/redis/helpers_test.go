package redis

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/admin-portal/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &Client{rdb: rdb}, mr
}

func isMissingField(err error, field string) bool {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code == "missing_field" && de.Meta != nil && de.Meta["field"] == field
	}
	return false
}
