package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"admin_backoffice/internal/common"
)

// MongoScopeFactory mở transaction scope dựa trên session của MongoDB
type MongoScopeFactory struct {
	client  *mongo.Client
	txnOpts *options.TransactionOptions
}

// NewMongoScopeFactory tạo mới MongoScopeFactory (snapshot read, majority write)
func NewMongoScopeFactory(client *mongo.Client) *MongoScopeFactory {
	return &MongoScopeFactory{
		client: client,
		txnOpts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

// Begin mở session và bắt đầu transaction
func (f *MongoScopeFactory) Begin(ctx context.Context) (Scope, error) {
	session, err := f.client.StartSession()
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if err := session.StartTransaction(f.txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, common.ConvertMongoError(err)
	}
	return &mongoScope{session: session}, nil
}

// mongoScope bọc một mongo.Session đang có transaction
type mongoScope struct {
	session mongo.Session
}

// Bind gắn session vào context, các thao tác collection dùng context này sẽ chạy trong transaction
func (s *mongoScope) Bind(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, s.session)
}

func (s *mongoScope) Commit(ctx context.Context) error {
	return common.ConvertMongoError(s.session.CommitTransaction(ctx))
}

func (s *mongoScope) Abort(ctx context.Context) error {
	return s.session.AbortTransaction(ctx)
}

func (s *mongoScope) End(ctx context.Context) {
	s.session.EndSession(ctx)
}
