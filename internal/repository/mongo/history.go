// Package mongo implements the append-only transaction history trail on
// MongoDB. Balance-bearing rows stay in postgres; history is write-once
// and read by time window, which fits a document collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayo6706/wallet-ledger/internal/domain"
	"github.com/ayo6706/wallet-ledger/internal/models"
)

const historyCollection = "wallet_history"

type HistoryStore struct {
	db *mongo.Database
}

func NewHistoryStore(db *mongo.Database) *HistoryStore {
	return &HistoryStore{db: db}
}

// record is the stored shape; decimals travel as fixed strings so no
// precision is lost to float64 round-trips.
type record struct {
	ID          string    `bson:"_id"`
	WalletID    string    `bson:"wallet_id"`
	UserID      string    `bson:"user_id"`
	SessionID   string    `bson:"session_id"`
	Amount      string    `bson:"amount"`
	Currency    string    `bson:"currency"`
	Type        string    `bson:"type"`
	Description string    `bson:"description"`
	Message     string    `bson:"message"`
	Status      string    `bson:"status"`
	IPAddress   string    `bson:"ip_address"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (s *HistoryStore) Append(ctx context.Context, r *models.TransactionRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	doc := record{
		ID:          r.ID.String(),
		WalletID:    r.WalletID.String(),
		UserID:      r.UserID.String(),
		SessionID:   r.SessionID,
		Amount:      r.Amount.String(),
		Currency:    r.Currency.String(),
		Type:        string(r.Type),
		Description: r.Description,
		Message:     r.Message,
		Status:      r.Status,
		IPAddress:   r.IPAddress,
		CreatedAt:   r.CreatedAt,
	}
	if _, err := s.db.Collection(historyCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

func (s *HistoryStore) ByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error) {
	return s.find(ctx, bson.M{"user_id": userID.String(), "created_at": bson.M{"$gt": since}})
}

func (s *HistoryStore) ByWalletSince(ctx context.Context, walletID uuid.UUID, since time.Time) ([]*models.TransactionRecord, error) {
	return s.find(ctx, bson.M{"wallet_id": walletID.String(), "created_at": bson.M{"$gt": since}})
}

func (s *HistoryStore) AllByUser(ctx context.Context, userID uuid.UUID) ([]*models.TransactionRecord, error) {
	return s.find(ctx, bson.M{"user_id": userID.String()})
}

func (s *HistoryStore) TotalReceived(ctx context.Context, walletID uuid.UUID, txType domain.TransactionType, currency domain.Currency, from, to time.Time) (decimal.Decimal, error) {
	records, err := s.find(ctx, bson.M{
		"wallet_id":  walletID.String(),
		"type":       string(txType),
		"currency":   currency.String(),
		"created_at": bson.M{"$gte": from, "$lte": to},
	})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (s *HistoryStore) find(ctx context.Context, filter bson.M) ([]*models.TransactionRecord, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := s.db.Collection(historyCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query history records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*models.TransactionRecord
	for cursor.Next(ctx) {
		var doc record
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		r, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, cursor.Err()
}

func (d record) toModel() (*models.TransactionRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse record id: %w", err)
	}
	walletID, err := uuid.Parse(d.WalletID)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	return &models.TransactionRecord{
		ID:          id,
		WalletID:    walletID,
		UserID:      userID,
		SessionID:   d.SessionID,
		Amount:      amount,
		Currency:    domain.Currency(d.Currency),
		Type:        domain.TransactionType(d.Type),
		Description: d.Description,
		Message:     d.Message,
		Status:      d.Status,
		IPAddress:   d.IPAddress,
		CreatedAt:   d.CreatedAt,
	}, nil
}
