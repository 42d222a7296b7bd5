package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner runs a unit of work inside a Mongo session transaction when the
// deployment supports it (replica set or sharded cluster).  Disabled, it
// simply calls fn and the caller's own ordering guarantees apply.
type TxRunner struct {
	client  *mongo.Client
	enabled bool
}

func NewTxRunner(client *mongo.Client, enabled bool) *TxRunner {
	return &TxRunner{client: client, enabled: enabled}
}

// WithTransaction executes fn.  The context passed to fn carries the
// session, so repository calls made with it join the transaction.
func (t *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t == nil || !t.enabled || t.client == nil {
		return fn(ctx)
	}
	sess, err := t.client.StartSession()
	if err != nil {
		return storeErr("start session", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
