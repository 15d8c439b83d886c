package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Database wraps the driver handle and hands out the collections the
// repositories work with.
type Database struct {
	cli *mongo.Client
	db  *mongo.Database
}

func Connect(ctx context.Context, uri, name string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect mongo")
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongo")
	}
	return &Database{cli: cli, db: cli.Database(name)}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.cli.Disconnect(ctx)
}

func (d *Database) Users() *mongo.Collection    { return d.db.Collection("users") }
func (d *Database) Messages() *mongo.Collection { return d.db.Collection("messages") }
func (d *Database) Groups() *mongo.Collection   { return d.db.Collection("groups") }
