package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lox/tablegames/internal/game"
)

// RoundRecord is one settled or voided round.
type RoundRecord struct {
	gorm.Model

	RoundID   string `gorm:"size:64;uniqueIndex;not null"`
	TableID   string `gorm:"size:64;index;not null"`
	Kind      string `gorm:"size:16;index;not null"`
	Voided    bool
	Reason    *string         `gorm:"type:text"`
	Hold      decimal.Decimal `gorm:"type:numeric(20,2);default:0"`
	Outcome   datatypes.JSON  `gorm:"type:jsonb"`
	StartedAt time.Time
	SettledAt time.Time `gorm:"index"`

	Settlements []SettlementRecord `gorm:"foreignKey:RoundRecordID;constraint:OnDelete:CASCADE"`
}

// SettlementRecord is one bet of a round and how it was settled.
type SettlementRecord struct {
	gorm.Model

	RoundRecordID uint            `gorm:"index;not null"`
	BetID         string          `gorm:"size:64;uniqueIndex;not null"`
	ParticipantID string          `gorm:"size:100;index;not null"`
	BetType       string          `gorm:"size:32;not null"`
	Selection     datatypes.JSON  `gorm:"type:jsonb"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);default:0"`
	Multiplier    decimal.Decimal `gorm:"type:numeric(10,4);default:0"`
	Result        string          `gorm:"size:16;not null"`
	Winnings      decimal.Decimal `gorm:"type:numeric(20,2);default:0"`
	Payout        decimal.Decimal `gorm:"type:numeric(20,2);default:0"`
}

// TableState holds the latest snapshot of a table.
type TableState struct {
	TableID   string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"size:16"`
	Phase     string `gorm:"size:32"`
	Version   uint64
	Snapshot  datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

// GormRecorder writes rounds, settlements and table state through gorm.
type GormRecorder struct {
	db *gorm.DB
}

var _ Backend = (*GormRecorder)(nil)

// OpenPostgres connects to the database at dsn.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// NewGormRecorder records into db.
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

// Migrate creates or updates the record tables.
func (g *GormRecorder) Migrate() error {
	return g.db.AutoMigrate(&RoundRecord{}, &SettlementRecord{}, &TableState{})
}

// RecordRound inserts the round and its settlements in one transaction.
func (g *GormRecorder) RecordRound(ctx context.Context, res *game.RoundResult) error {
	row, err := roundRow(res)
	if err != nil {
		return err
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert round %s: %w", res.RoundID, err)
		}
		return nil
	})
}

// RecordSnapshot upserts the table's latest state.
func (g *GormRecorder) RecordSnapshot(ctx context.Context, snap *game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	row := TableState{
		TableID:   snap.TableID,
		Kind:      string(snap.Kind),
		Phase:     string(snap.Phase),
		Version:   snap.Version,
		Snapshot:  datatypes.JSON(data),
		UpdatedAt: snap.UpdatedAt,
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "phase", "version", "snapshot", "updated_at"}),
	}).Create(&row).Error
}

func (g *GormRecorder) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func roundRow(res *game.RoundResult) (RoundRecord, error) {
	outcome, err := json.Marshal(res.Outcome)
	if err != nil {
		return RoundRecord{}, fmt.Errorf("encode outcome: %w", err)
	}
	row := RoundRecord{
		RoundID:   res.RoundID,
		TableID:   res.TableID,
		Kind:      string(res.Kind),
		Voided:    res.Voided,
		Hold:      res.Hold(),
		Outcome:   datatypes.JSON(outcome),
		StartedAt: res.StartedAt,
		SettledAt: res.SettledAt,
	}
	if res.Reason != "" {
		reason := res.Reason
		row.Reason = &reason
	}
	for _, s := range res.Settled {
		sel, err := json.Marshal(s.Bet.Selection)
		if err != nil {
			return RoundRecord{}, fmt.Errorf("encode selection: %w", err)
		}
		row.Settlements = append(row.Settlements, SettlementRecord{
			BetID:         s.Bet.ID,
			ParticipantID: s.Bet.ParticipantID,
			BetType:       string(s.Bet.Type),
			Selection:     datatypes.JSON(sel),
			Amount:        s.Bet.Amount,
			Multiplier:    s.Bet.Multiplier,
			Result:        string(s.Result),
			Winnings:      s.Winnings,
			Payout:        s.Payout,
		})
	}
	return row, nil
}
