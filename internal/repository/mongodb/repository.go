package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

// Repository defines the interface for webhook event storage.
type Repository interface {
	SaveEvent(ctx context.Context, event chatguru.CanonicalChatEvent, raw []byte) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	now      func() time.Time
}

type mediaDocument struct {
	Kind     string `bson:"kind"`
	URL      string `bson:"url"`
	MimeType string `bson:"mime_type"`
}

type eventDocument struct {
	Shape        string         `bson:"shape"`
	ChatID       string         `bson:"chat_id,omitempty"`
	ContactName  string         `bson:"contact_name"`
	Phone        string         `bson:"phone,omitempty"`
	Email        string         `bson:"email,omitempty"`
	PhoneID      string         `bson:"phone_id,omitempty"`
	Text         string         `bson:"text"`
	CustomFields bson.M         `bson:"custom_fields"`
	Media        *mediaDocument `bson:"media,omitempty"`
	Raw          string         `bson:"raw"`
	ReceivedAt   time.Time      `bson:"received_at"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "webhook_events",
		now:      time.Now,
	}, nil
}

// SaveEvent archives a normalized webhook together with its original body.
func (r *MongoDBRepository) SaveEvent(ctx context.Context, event chatguru.CanonicalChatEvent, raw []byte) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err := collection.InsertOne(ctx, toDocument(event, raw, r.now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func toDocument(event chatguru.CanonicalChatEvent, raw []byte, receivedAt time.Time) eventDocument {
	doc := eventDocument{
		Shape:        string(event.Shape),
		ChatID:       event.ChatID,
		ContactName:  event.ContactName,
		Phone:        event.Phone,
		Email:        event.Email,
		PhoneID:      event.PhoneID,
		Text:         event.Text,
		CustomFields: bson.M{},
		Raw:          string(raw),
		ReceivedAt:   receivedAt,
	}
	for k, v := range event.CustomFields {
		doc.CustomFields[k] = v
	}
	if event.Media != nil {
		doc.Media = &mediaDocument{
			Kind:     string(event.Media.Kind),
			URL:      event.Media.URL,
			MimeType: event.Media.MimeType,
		}
	}
	return doc
}
