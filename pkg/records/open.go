package records

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Open returns the store named by dsn:
//
//	""  or "memory:"                 in-process MemoryStore
//	sqlite://path, file:path         SQLStore on SQLite
//	postgres://..., postgresql://... SQLStore on Postgres
//	mongodb://..., mongodb+srv://... MongoStore; the URI path names the database
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory:":
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQL(ctx, SQLite, strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return OpenSQL(ctx, SQLite, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenSQL(ctx, Postgres, dsn)
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mongo uri: %w", err)
		}
		return OpenMongo(ctx, dsn, strings.Trim(u.Path, "/"))
	}
	return nil, fmt.Errorf("unsupported store dsn %q", redact(dsn))
}

// redact drops credentials from a DSN for error messages.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
