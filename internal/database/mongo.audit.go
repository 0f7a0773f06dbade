package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"admin_backoffice/internal/logger"
)

// MongoAuditSink ghi audit entry vào collection audit_logs, nằm ngoài mọi transaction
type MongoAuditSink struct {
	collection *mongo.Collection
}

// NewMongoAuditSink tạo sink ghi vào collection
func NewMongoAuditSink(collection *mongo.Collection) *MongoAuditSink {
	return &MongoAuditSink{collection: collection}
}

// WriteAudit chèn entry vào MongoDB
func (s *MongoAuditSink) WriteAudit(ctx context.Context, entry logger.AuditEntry) error {
	_, err := s.collection.InsertOne(ctx, entry)
	return err
}
