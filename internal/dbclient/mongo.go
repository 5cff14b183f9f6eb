package dbclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"console/internal/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoConnector implements Connector for MongoDB.
type mongoConnector struct {
	client *mongo.Client
	dbName string
}

// mongoQuery is the JSON document an import job uses as its "query".
//
//	{"collection": "users", "filter": {"active": true}, "sort": {"name": 1}}
//	{"collection": "orders", "operation": "aggregate", "pipeline": [...]}
type mongoQuery struct {
	Collection string         `json:"collection"`
	Operation  string         `json:"operation,omitempty"` // find (default) | aggregate
	Filter     map[string]any `json:"filter,omitempty"`
	Projection map[string]any `json:"projection,omitempty"`
	Sort       map[string]any `json:"sort,omitempty"`
	Limit      int64          `json:"limit,omitempty"`
	Pipeline   []any          `json:"pipeline,omitempty"`
}

func newMongoConnector(conn *domain.DatabaseConnection) (*mongoConnector, error) {
	uri := buildMongoURI(conn)
	dbName := conn.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}

	log.Printf("[MONGO] Connecting to %s (db %s)", maskPassword(uri, conn.Password), dbName)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &mongoConnector{client: client, dbName: dbName}, nil
}

// buildMongoURI uses Host verbatim when it is already a connection string,
// otherwise assembles one from host, port and credentials.
func buildMongoURI(conn *domain.DatabaseConnection) string {
	if strings.HasPrefix(conn.Host, "mongodb://") || strings.HasPrefix(conn.Host, "mongodb+srv://") {
		uri := conn.Host
		if conn.Password != "" {
			uri = strings.ReplaceAll(uri, "<password>", conn.Password)
			uri = strings.ReplaceAll(uri, "<db_password>", conn.Password)
		}
		return uri
	}

	port := conn.Port
	if port == 0 {
		port = 27017
	}
	u := url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%d", conn.Host, port)}
	if conn.Username != "" {
		u.User = url.UserPassword(conn.Username, conn.Password)
	}
	if len(conn.Options) > 0 {
		q := url.Values{}
		for k, v := range conn.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// databaseFromURI extracts the path segment of a mongodb URI, defaulting to "test".
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "test"
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return "test"
}

func maskPassword(uri, password string) string {
	if password == "" {
		return uri
	}
	uri = strings.ReplaceAll(uri, url.PathEscape(password), "***")
	return strings.ReplaceAll(uri, password, "***")
}

// extJSON converts MongoDB Extended JSON ($oid, $date, ...) in a decoded
// JSON object into driver types. On failure the input is returned unchanged.
func extJSON(field map[string]any) any {
	if field == nil {
		return nil
	}
	raw, err := json.Marshal(field)
	if err != nil {
		return field
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		log.Printf("[MONGO] extended JSON parse warning: %v", err)
		return field
	}
	return doc
}

func (m *mongoConnector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoConnector) Stream(ctx context.Context, query string, batchSize int, fn func(*Page) error) error {
	var mq mongoQuery
	if err := json.Unmarshal([]byte(query), &mq); err != nil {
		return fmt.Errorf("invalid query JSON: %w", err)
	}
	if mq.Collection == "" {
		return fmt.Errorf("query must specify 'collection'")
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	coll := m.client.Database(m.dbName).Collection(mq.Collection)

	var (
		cursor *mongo.Cursor
		err    error
	)
	switch mq.Operation {
	case "", "find":
		opts := options.Find().SetBatchSize(int32(batchSize))
		if p := extJSON(mq.Projection); p != nil {
			opts.SetProjection(p)
		}
		if s := extJSON(mq.Sort); s != nil {
			opts.SetSort(s)
		}
		if mq.Limit > 0 {
			opts.SetLimit(mq.Limit)
		}
		filter := extJSON(mq.Filter)
		if filter == nil {
			filter = bson.D{}
		}
		cursor, err = coll.Find(ctx, filter, opts)
	case "aggregate":
		pipeline := mq.Pipeline
		if pipeline == nil {
			pipeline = []any{}
		}
		cursor, err = coll.Aggregate(ctx, pipeline)
	default:
		return fmt.Errorf("unsupported operation for import: %s", mq.Operation)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", mq.Collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		docs = append(docs, doc)
		if len(docs) == batchSize {
			if err := fn(docsToPage(docs)); err != nil {
				return err
			}
			docs = nil
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor: %w", err)
	}
	if len(docs) > 0 {
		return fn(docsToPage(docs))
	}
	return nil
}

// docsToPage flattens documents into columns: _id first, then alphabetical.
func docsToPage(docs []bson.D) *Page {
	seen := map[string]bool{}
	var columns []string
	for _, doc := range docs {
		for _, elem := range doc {
			if !seen[elem.Key] {
				seen[elem.Key] = true
				columns = append(columns, elem.Key)
			}
		}
	}
	sort.SliceStable(columns, func(i, j int) bool {
		if columns[i] == "_id" || columns[j] == "_id" {
			return columns[i] == "_id"
		}
		return columns[i] < columns[j]
	})

	page := &Page{Columns: columns, Rows: make([][]any, 0, len(docs))}
	for _, doc := range docs {
		values := make(map[string]any, len(doc))
		for _, elem := range doc {
			values[elem.Key] = elem.Value
		}
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = bsonValue(values[col])
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// bsonValue keeps JSON-compatible scalars and stringifies driver types.
func bsonValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (m *mongoConnector) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
