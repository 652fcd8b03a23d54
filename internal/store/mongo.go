package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meetscribe/internal/database"
	"meetscribe/internal/models"
)

// NewMongo wires all four ports to MongoDB collections.
func NewMongo(db *database.MongoDB) *Store {
	return &Store{
		Events:      &mongoEventStore{collection: db.Collection(database.CollectionEvents)},
		Reports:     &mongoReportStore{collection: db.Collection(database.CollectionEventReports)},
		Accounts:    &mongoAccountStore{collection: db.Collection(database.CollectionAccounts)},
		Automations: &mongoAutomationStore{
			automations:       db.Collection(database.CollectionAutomations),
			reportAutomations: db.Collection(database.CollectionReportAutomations),
		},
	}
}

type mongoEventStore struct {
	collection *mongo.Collection
}

func (s *mongoEventStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (s *mongoEventStore) GetByProviderEventID(ctx context.Context, providerEventID string) (*models.Event, error) {
	var event models.Event
	err := s.collection.FindOne(ctx, bson.M{"providerEventId": providerEventID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by provider id: %w", err)
	}
	return &event, nil
}

func (s *mongoEventStore) GetByReportID(ctx context.Context, reportID primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	err := s.collection.FindOne(ctx, bson.M{"reportId": reportID}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by report id: %w", err)
	}
	return &event, nil
}

func (s *mongoEventStore) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Event, error) {
	opts := options.Find().SetSort(bson.M{"startTime": 1})
	cursor, err := s.collection.Find(ctx, bson.M{"ownerEmail": ownerEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (s *mongoEventStore) ListOngoing(ctx context.Context, ownerEmail string, now time.Time) ([]*models.Event, error) {
	filter := bson.M{
		"ownerEmail": ownerEmail,
		"finished":   false,
		"reportId":   bson.M{"$ne": nil},
		"startTime":  bson.M{"$lt": now},
	}
	opts := options.Find().SetSort(bson.M{"startTime": -1})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode ongoing events: %w", err)
	}
	return events, nil
}

func (s *mongoEventStore) ListDispatchCandidates(ctx context.Context) ([]*models.Event, error) {
	filter := bson.M{
		"wantsBot":   true,
		"hasSentBot": false,
		"finished":   false,
	}
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatch candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode dispatch candidates: %w", err)
	}
	return events, nil
}

func (s *mongoEventStore) Insert(ctx context.Context, event *models.Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *mongoEventStore) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now()
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoReportStore struct {
	collection *mongo.Collection
}

func (s *mongoReportStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EventReport, error) {
	var report models.EventReport
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (s *mongoReportStore) GetByBotID(ctx context.Context, botID string) (*models.EventReport, error) {
	var report models.EventReport
	err := s.collection.FindOne(ctx, bson.M{"botId": botID}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report by bot id: %w", err)
	}
	return &report, nil
}

func (s *mongoReportStore) ListInFlight(ctx context.Context) ([]*models.EventReport, error) {
	// platform: nil matches both missing and explicit null
	cursor, err := s.collection.Find(ctx, bson.M{"platform": nil})
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*models.EventReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode in-flight reports: %w", err)
	}
	return reports, nil
}

func (s *mongoReportStore) ListFinalizedByOwner(ctx context.Context, ownerEmail string) ([]*models.EventReport, error) {
	filter := bson.M{
		"ownerEmail": ownerEmail,
		"platform":   bson.M{"$ne": nil},
	}
	opts := options.Find().SetSort(bson.M{"startTime": 1})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*models.EventReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode finalized reports: %w", err)
	}
	return reports, nil
}

func (s *mongoReportStore) Insert(ctx context.Context, report *models.EventReport) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

func (s *mongoReportStore) Update(ctx context.Context, report *models.EventReport) error {
	report.UpdatedAt = time.Now()
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": report.ID}, report)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoReportStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoAccountStore struct {
	collection *mongo.Collection
}

func (s *mongoAccountStore) GetByUsernameAndProvider(ctx context.Context, username string, provider models.OAuthProvider) (*models.Account, error) {
	var account models.Account
	err := s.collection.FindOne(ctx, bson.M{"username": username, "provider": provider}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (s *mongoAccountStore) Upsert(ctx context.Context, username string, provider models.OAuthProvider, oauthToken string) (*models.Account, error) {
	now := time.Now()
	filter := bson.M{"username": username, "provider": provider}
	update := bson.M{
		"$set": bson.M{
			"oauthToken":  oauthToken,
			"lastLoginAt": now,
		},
		"$setOnInsert": bson.M{
			"username":             username,
			"provider":             provider,
			"minutesBeforeMeeting": models.DefaultMinutesBeforeMeeting,
			"createdAt":            now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var account models.Account
	if err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return &account, nil
}

func (s *mongoAccountStore) Update(ctx context.Context, account *models.Account) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": account.ID}, account)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoAutomationStore struct {
	automations       *mongo.Collection
	reportAutomations *mongo.Collection
}

func (s *mongoAutomationStore) GetAutomation(ctx context.Context, id primitive.ObjectID) (*models.Automation, error) {
	var automation models.Automation
	err := s.automations.FindOne(ctx, bson.M{"_id": id}).Decode(&automation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}
	return &automation, nil
}

func (s *mongoAutomationStore) ListAutomations(ctx context.Context) ([]*models.Automation, error) {
	cursor, err := s.automations.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer cursor.Close(ctx)

	var automations []*models.Automation
	if err := cursor.All(ctx, &automations); err != nil {
		return nil, fmt.Errorf("failed to decode automations: %w", err)
	}
	return automations, nil
}

func (s *mongoAutomationStore) InsertAutomation(ctx context.Context, automation *models.Automation) error {
	if automation.ID.IsZero() {
		automation.ID = primitive.NewObjectID()
	}
	automation.CreatedAt = time.Now()
	if _, err := s.automations.InsertOne(ctx, automation); err != nil {
		return fmt.Errorf("failed to insert automation: %w", err)
	}
	return nil
}

func (s *mongoAutomationStore) DeleteAutomation(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.automations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoAutomationStore) CountBuiltinAutomations(ctx context.Context) (int64, error) {
	count, err := s.automations.CountDocuments(ctx, bson.M{"builtin": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count builtin automations: %w", err)
	}
	return count, nil
}

func (s *mongoAutomationStore) InsertReportAutomation(ctx context.Context, ra *models.ReportAutomation) error {
	if ra.ID.IsZero() {
		ra.ID = primitive.NewObjectID()
	}
	ra.CreatedAt = time.Now()
	if _, err := s.reportAutomations.InsertOne(ctx, ra); err != nil {
		return fmt.Errorf("failed to insert report automation: %w", err)
	}
	return nil
}

func (s *mongoAutomationStore) ListReportAutomations(ctx context.Context, reportID primitive.ObjectID) ([]*models.ReportAutomation, error) {
	cursor, err := s.reportAutomations.Find(ctx, bson.M{"reportId": reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to list report automations: %w", err)
	}
	defer cursor.Close(ctx)

	var ras []*models.ReportAutomation
	if err := cursor.All(ctx, &ras); err != nil {
		return nil, fmt.Errorf("failed to decode report automations: %w", err)
	}
	return ras, nil
}
