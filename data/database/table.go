package database

import "go.mongodb.org/mongo-driver/mongo"

// Table is satisfied by every persisted model. GetTableName must be callable
// on a nil receiver; stores use it to resolve collections at construction.
type Table interface {
	GetTableName() string
	Collection() *mongo.Collection
}
