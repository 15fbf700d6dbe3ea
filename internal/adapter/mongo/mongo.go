// Package mongo implements the report persistence gateway on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/couchcryptid/sightings/internal/config"
	"github.com/couchcryptid/sightings/internal/domain"
)

// Collection names.
const (
	ReportsCollection = "reports"
	ContactCollection = "contact-submissions"
)

type reportDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Location    string             `bson:"location"`
	Latitude    float64            `bson:"latitude"`
	Longitude   float64            `bson:"longitude"`
	Description string             `bson:"description"`
	Timestamp   string             `bson:"timestamp"`
	Images      []string           `bson:"images"`
	CreatedAt   string             `bson:"createdAt"`
}

func (d reportDoc) toReport() domain.Report {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return domain.Report{
		ID:          d.ID.Hex(),
		Location:    d.Location,
		Latitude:    d.Latitude,
		Longitude:   d.Longitude,
		Description: d.Description,
		Timestamp:   d.Timestamp,
		Images:      images,
	}
}

type contactDoc struct {
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
	Status    string    `bson:"status"`
}

// Gateway reads and writes reports and contact submissions.
type Gateway struct {
	client  *mongo.Client
	reports *mongo.Collection
	contact *mongo.Collection
	clock   clockwork.Clock
	logger  *slog.Logger
}

// Connect dials MongoDB, verifies the connection with a ping, and returns a
// Gateway bound to the configured database.
func Connect(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) (*Gateway, error) {
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("mongo connected",
		"uri", redactURI(cfg.MongoURI),
		"db", cfg.MongoDB,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return New(client, cfg.MongoDB, clock, logger), nil
}

// New binds a Gateway to an existing client. The clock stamps createdAt on
// reports and the submission time on contact messages.
func New(client *mongo.Client, database string, clock clockwork.Clock, logger *slog.Logger) *Gateway {
	db := client.Database(database)
	return &Gateway{
		client:  client,
		reports: db.Collection(ReportsCollection),
		contact: db.Collection(ContactCollection),
		clock:   clock,
		logger:  logger,
	}
}

// Close disconnects the client.
func (g *Gateway) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}

// CheckReadiness pings the primary.
func (g *Gateway) CheckReadiness(ctx context.Context) error {
	if err := g.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

// EnsureIndexes creates the timestamp index used by listings.
func (g *Gateway) EnsureIndexes(ctx context.Context) error {
	_, err := g.reports.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create timestamp index: %w", err)
	}
	return nil
}

// Create inserts a report. The input is expected to be validated already;
// only presence of the required fields is checked here.
func (g *Gateway) Create(ctx context.Context, in domain.ReportInput) (domain.Report, error) {
	doc, err := newReportDoc(in, g.clock.Now())
	if err != nil {
		return domain.Report{}, err
	}

	res, err := g.reports.InsertOne(ctx, doc)
	if err != nil {
		return domain.Report{}, fmt.Errorf("failed to submit report: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	g.logger.Debug("report stored", "id", doc.ID.Hex(), "images", len(doc.Images))
	return doc.toReport(), nil
}

func newReportDoc(in domain.ReportInput, now time.Time) (reportDoc, error) {
	in = in.Normalized()
	for field, v := range map[string]string{
		"location":    in.Location,
		"description": in.Description,
		"timestamp":   in.Timestamp,
	} {
		if v == "" {
			return reportDoc{}, fmt.Errorf("%w: %s", domain.ErrMissingField, field)
		}
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return reportDoc{
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Description: in.Description,
		Timestamp:   in.Timestamp,
		Images:      images,
		CreatedAt:   domain.FormatTimestamp(now),
	}, nil
}

// List returns reports inside r, newest first.
func (g *Gateway) List(ctx context.Context, r domain.DateRange) domain.ListResult {
	return domain.ResultOf(g.find(ctx, rangeFilter(r), 0))
}

// ListRecent returns the limit newest reports.
func (g *Gateway) ListRecent(ctx context.Context, limit int) domain.ListResult {
	return domain.ResultOf(g.find(ctx, bson.D{}, int64(limit)))
}

// Get fetches a single report by id.
func (g *Gateway) Get(ctx context.Context, id string) (domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Report{}, domain.ErrNotFound
	}
	var doc reportDoc
	if err := g.reports.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("get report %s: %w", id, err)
	}
	return doc.toReport(), nil
}

func (g *Gateway) find(ctx context.Context, filter bson.D, limit int64) ([]domain.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := g.reports.Find(ctx, filter, opts)
	if err != nil {
		g.logger.Warn("report query failed", "error", err)
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		g.logger.Warn("report decode failed", "error", err)
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	reports := make([]domain.Report, len(docs))
	for i := range docs {
		reports[i] = docs[i].toReport()
	}
	return reports, nil
}

// rangeFilter translates a date range into a timestamp filter. Stored
// timestamps share one fixed-width UTC layout, so string bounds compare
// chronologically.
func rangeFilter(r domain.DateRange) bson.D {
	if r.IsZero() {
		return bson.D{}
	}
	bounds := bson.D{}
	if !r.From.IsZero() {
		bounds = append(bounds, bson.E{Key: "$gte", Value: domain.FormatTimestamp(r.From)})
	}
	if !r.To.IsZero() {
		bounds = append(bounds, bson.E{Key: "$lte", Value: domain.FormatTimestamp(r.To)})
	}
	return bson.D{{Key: "timestamp", Value: bounds}}
}

// SubmitContact stores a contact form message and returns its id.
func (g *Gateway) SubmitContact(ctx context.Context, m domain.ContactMessage) (string, error) {
	doc := contactDoc{
		Name:      m.Name,
		Email:     m.Email,
		Message:   m.Message,
		Timestamp: g.clock.Now().UTC(),
		Status:    domain.ContactStatusNew,
	}
	res, err := g.contact.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
