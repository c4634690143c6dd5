package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo maps each adapter collection onto a MongoDB collection, with the
// document ID stored as _id. Patch operators translate directly onto
// $set/$inc/$addToSet/$pull, so field updates are atomic server-side.
type Mongo struct {
	client   *mongo.Client
	db       *mongo.Database
	notifier *notifier
}

func NewMongo(uri, dbName string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("store: MONGO_URI is required for the mongo driver")
	}
	if dbName == "" {
		dbName = "shoppinglist"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connect mongo: %w", err)
	}
	if err := client.Ping(context.Background(), nil); err != nil {
		return nil, fmt.Errorf("store: ping mongo: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(dbName)}
	m.notifier = newNotifier(m.Query)
	return m, nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return mongoDocument(id, raw)
}

func mongoDocument(id string, raw bson.M) (Document, error) {
	delete(raw, "_id")
	data, err := json.Marshal(raw)
	if err != nil {
		return Document{}, fmt.Errorf("store: encode document: %w", err)
	}
	return Document{ID: id, Data: data}, nil
}

func mongoBody(id string, doc any) (bson.M, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	var body bson.M
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("store: encode document: %w", err)
	}
	body["_id"] = id
	return body, nil
}

func (m *Mongo) Set(ctx context.Context, collection, id string, doc any) error {
	body, err := mongoBody(id, doc)
	if err != nil {
		return err
	}
	_, err = m.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	m.notifier.changed(collection)
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, patch Patch) error {
	if err := validatePatch(collection, patch); err != nil {
		return err
	}
	update, err := mongoUpdate(patch)
	if err != nil {
		return err
	}
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	m.notifier.changed(collection)
	return nil
}

func mongoUpdate(patch Patch) (bson.M, error) {
	sets := bson.M{}
	incs := bson.M{}
	adds := bson.M{}
	pulls := bson.M{}
	for field, fu := range patch {
		switch fu.Op {
		case OpSet:
			sets[field] = normalize(fu.Value)
		case OpIncrement:
			n, err := asNumber(fu.Value)
			if err != nil {
				return nil, fmt.Errorf("store: increment on %q: %w", field, err)
			}
			incs[field] = n
		case OpArrayUnion:
			adds[field] = normalize(fu.Value)
		case OpArrayRemove:
			pulls[field] = normalize(fu.Value)
		default:
			return nil, fmt.Errorf("store: unknown field op %q", fu.Op)
		}
	}
	update := bson.M{}
	if len(sets) > 0 {
		update["$set"] = sets
	}
	if len(incs) > 0 {
		update["$inc"] = incs
	}
	if len(adds) > 0 {
		update["$addToSet"] = adds
	}
	if len(pulls) > 0 {
		update["$pull"] = pulls
	}
	return update, nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	_, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	m.notifier.changed(collection)
	return nil
}

func (m *Mongo) Query(ctx context.Context, q Query) ([]Document, error) {
	filter := mongoFilter(q.Conds)
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	cursor, err := m.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		id, _ := raw["_id"].(string)
		doc, err := mongoDocument(id, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, cursor.Err()
}

func mongoFilter(conds []Cond) bson.M {
	filter := bson.M{}
	for _, c := range conds {
		v := normalize(c.Value)
		switch c.Op {
		case Eq:
			filter[c.Field] = v
		case ArrayContains:
			filter[c.Field] = bson.M{"$elemMatch": bson.M{"$eq": v}}
		case Gte, Lte:
			rangeFilter, ok := filter[c.Field].(bson.M)
			if !ok {
				rangeFilter = bson.M{}
				filter[c.Field] = rangeFilter
			}
			if c.Op == Gte {
				rangeFilter["$gte"] = v
			} else {
				rangeFilter["$lte"] = v
			}
		}
	}
	return filter
}

func (m *Mongo) Batch() Batch {
	return &mongoBatch{store: m}
}

func (m *Mongo) Subscribe(q Query) (*Subscription, error) {
	return m.notifier.subscribe(q)
}

func (m *Mongo) Close() error {
	m.notifier.closeAll()
	return m.client.Disconnect(context.Background())
}

// mongoBatch groups writes into one BulkWrite per collection. Writes to a
// single collection are applied together; cross-collection batches run
// collection by collection and stop at the first failure.
type mongoBatch struct {
	store *Mongo
	ops   []batchOp
}

func (b *mongoBatch) Set(collection, id string, doc any) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, doc: doc})
}

func (b *mongoBatch) Update(collection, id string, patch Patch) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, patch: patch})
}

func (b *mongoBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	grouped := map[string][]mongo.WriteModel{}
	var order []string
	for _, op := range b.ops {
		model, err := b.toModel(op)
		if err != nil {
			return err
		}
		if _, seen := grouped[op.collection]; !seen {
			order = append(order, op.collection)
		}
		grouped[op.collection] = append(grouped[op.collection], model)
	}

	for _, collection := range order {
		if _, err := b.store.db.Collection(collection).BulkWrite(ctx, grouped[collection]); err != nil {
			return err
		}
	}
	for _, collection := range order {
		b.store.notifier.changed(collection)
	}
	return nil
}

func (b *mongoBatch) toModel(op batchOp) (mongo.WriteModel, error) {
	switch op.kind {
	case "set":
		body, err := mongoBody(op.id, op.doc)
		if err != nil {
			return nil, err
		}
		return mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": op.id}).
			SetReplacement(body).
			SetUpsert(true), nil
	case "update":
		if err := validatePatch(op.collection, op.patch); err != nil {
			return nil, err
		}
		update, err := mongoUpdate(op.patch)
		if err != nil {
			return nil, err
		}
		return mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": op.id}).
			SetUpdate(update), nil
	default:
		return mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": op.id}), nil
	}
}
