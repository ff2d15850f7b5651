package provider

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/clusterview/pkg/errors"
	"github.com/matzehuels/clusterview/pkg/graph"
)

// datasetDoc is the stored shape of a dataset: one document per dataset,
// keyed by name.
type datasetDoc struct {
	Name     string          `bson:"_id"`
	Nodes    []graph.Node    `bson:"nodes"`
	Links    []graph.Link    `bson:"links"`
	Clusters []graph.Cluster `bson:"clusters"`
}

// Mongo loads a named dataset from a MongoDB collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	name       string
	source     string
}

// OpenMongo connects to the server in uri. The URI path names the dataset
// as /database/collection/name; missing database and collection segments
// fall back to cfg. The dataset name is required.
//
//	mongodb://localhost:27017/graphs/services/checkout
func OpenMongo(ctx context.Context, uri string, cfg Config) (*Mongo, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid mongo uri")
	}
	db, coll, name := splitMongoPath(u.Path, cfg)
	if db == "" || coll == "" || name == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"mongo source needs database, collection, and dataset name (got %q)", u.Path)
	}

	redacted := u.Redacted()
	u.Path, u.RawPath = "", ""
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(u.String()))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect mongo")
	}
	return NewMongo(client, db, coll, name, redacted), nil
}

// NewMongo wraps a connected client.
func NewMongo(client *mongo.Client, database, collection, name, source string) *Mongo {
	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
		name:       name,
		source:     source,
	}
}

func splitMongoPath(path string, cfg Config) (db, coll, name string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	db, coll = cfg.MongoDatabase, cfg.MongoCollection
	switch len(parts) {
	case 1:
		name = parts[0]
	case 2:
		coll, name = parts[0], parts[1]
	case 3:
		db, coll, name = parts[0], parts[1], parts[2]
	}
	return db, coll, name
}

// Load fetches the dataset document. A missing document fails with
// FILE_NOT_FOUND, like a missing file.
func (m *Mongo) Load(ctx context.Context) (*graph.Dataset, error) {
	var doc datasetDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": m.name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "dataset %q not found in %s", m.name, m.collection.Name())
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load dataset %q", m.name)
	}
	return graph.New(doc.Nodes, doc.Links, doc.Clusters), nil
}

// Save stores d under the provider's dataset name, replacing any previous
// version.
func (m *Mongo) Save(ctx context.Context, d *graph.Dataset) error {
	doc := datasetDoc{Name: m.name, Nodes: d.Nodes, Links: d.Links, Clusters: d.Clusters}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": m.name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save dataset %q", m.name)
	}
	return nil
}

func (m *Mongo) Source() string { return m.source }

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

var _ Provider = (*Mongo)(nil)
