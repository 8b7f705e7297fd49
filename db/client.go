package db

import (
	"errors"
	"sync"

	"github.com/SaiNageswarS/go-api-boot/odm"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MongoConn hands out a lazily dialed Mongo client. Agents connect on first
// use, and repeated calls reuse the same client, so the handler path can call
// Client() without tracking connection state.
type MongoConn struct {
	once   sync.Once
	dial   func() (*mongo.Client, error)
	client *mongo.Client
	err    error
}

func ProvideMongoConn() *MongoConn {
	return &MongoConn{dial: dialAtlas}
}

func (c *MongoConn) Client() (*mongo.Client, error) {
	c.once.Do(func() {
		c.client, c.err = c.dial()
	})
	return c.client, c.err
}

func dialAtlas() (*mongo.Client, error) {
	client, ok := odm.ProvideMongoClient().(*mongo.Client)
	if !ok {
		return nil, errors.New("mongo: unexpected client implementation")
	}
	return client, nil
}
