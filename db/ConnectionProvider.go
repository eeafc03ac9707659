package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/Netcracker/qubership-datahub-backend/qubership-datahub-service/view"
	"github.com/go-pg/pg/v10"
	log "github.com/sirupsen/logrus"
)

type ConnectionProvider interface {
	GetConnection() *pg.DB
	Ping(ctx context.Context) error
	Close() error
}

type connectionProviderImpl struct {
	creds view.DbCredentials
	once  sync.Once
	db    *pg.DB
}

func NewConnectionProvider(creds *view.DbCredentials) ConnectionProvider {
	return &connectionProviderImpl{creds: *creds}
}

func (c *connectionProviderImpl) GetConnection() *pg.DB {
	c.once.Do(func() {
		c.db = pg.Connect(&pg.Options{
			Addr:       fmt.Sprintf("%s:%d", c.creds.Host, c.creds.Port),
			User:       c.creds.Username,
			Password:   c.creds.Password,
			Database:   c.creds.Database,
			PoolSize:   50,
			MaxRetries: 5,
		})
		if log.IsLevelEnabled(log.TraceLevel) {
			c.db.AddQueryHook(queryLogger{})
		}
	})
	return c.db
}

func (c *connectionProviderImpl) Ping(ctx context.Context) error {
	return c.GetConnection().Ping(ctx)
}

func (c *connectionProviderImpl) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

type queryLogger struct{}

func (d queryLogger) BeforeQuery(ctx context.Context, q *pg.QueryEvent) (context.Context, error) {
	return ctx, nil
}

func (d queryLogger) AfterQuery(ctx context.Context, q *pg.QueryEvent) error {
	query, err := q.FormattedQuery()
	if err == nil {
		log.Trace(string(query))
	}
	return nil
}
