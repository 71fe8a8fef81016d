package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxBatchOps is the largest number of writes committed atomically in one batch.
const MaxBatchOps = 500

var (
	ErrBatchTooLarge    = errors.New("batch exceeds maximum operation count")
	ErrDocumentNotFound = errors.New("document not found")
)

type OpKind int

const (
	// OpUpdate sets fields on an existing document. A missing document fails the batch.
	OpUpdate OpKind = iota
	// OpMerge sets fields, creating the document if needed. Other fields are preserved.
	OpMerge
	// OpDelete removes a document. A missing document is not an error.
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpUpdate:
		return "update"
	case OpMerge:
		return "merge"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Op struct {
	Kind       OpKind
	Collection string
	ID         string
	Fields     bson.M
}

// Batch is an ordered list of writes applied all-or-nothing by a BatchCommitter.
type Batch struct {
	ops []Op
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Update(collection, id string, fields bson.M) *Batch {
	b.ops = append(b.ops, Op{Kind: OpUpdate, Collection: collection, ID: id, Fields: fields})
	return b
}

func (b *Batch) Merge(collection, id string, fields bson.M) *Batch {
	b.ops = append(b.ops, Op{Kind: OpMerge, Collection: collection, ID: id, Fields: fields})
	return b
}

func (b *Batch) Delete(collection, id string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDelete, Collection: collection, ID: id})
	return b
}

func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Full() bool {
	return len(b.ops) >= MaxBatchOps
}

func (b *Batch) Ops() []Op {
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

type BatchCommitter interface {
	Commit(ctx context.Context, batch *Batch) error
}

type mongoBatchCommitter struct {
	db *mongo.Database
	tx TransactionManager
}

func NewBatchCommitter(db *mongo.Database, tx TransactionManager) BatchCommitter {
	return &mongoBatchCommitter{db: db, tx: tx}
}

func (c *mongoBatchCommitter) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	if batch.Len() > MaxBatchOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, batch.Len(), MaxBatchOps)
	}

	return c.tx.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for i, op := range batch.ops {
			if err := c.apply(sessCtx, op); err != nil {
				return fmt.Errorf("op %d (%s %s/%s): %w", i, op.Kind, op.Collection, op.ID, err)
			}
		}
		return nil
	})
}

func (c *mongoBatchCommitter) apply(ctx context.Context, op Op) error {
	coll := c.db.Collection(op.Collection)
	filter := bson.M{"_id": op.ID}

	switch op.Kind {
	case OpUpdate:
		res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": op.Fields})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrDocumentNotFound
		}
	case OpMerge:
		_, err := coll.UpdateOne(ctx, filter, bson.M{"$set": op.Fields}, options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
	case OpDelete:
		if _, err := coll.DeleteOne(ctx, filter); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported op kind %d", op.Kind)
	}
	return nil
}
