package repository

import "time"

// Bin statuses.
const (
	BinStatusActive   = "active"
	BinStatusFull     = "full"
	BinStatusInactive = "inactive"
)

// Bin is a registered collection bin.
type Bin struct {
	ID              string    `gorm:"column:id;primaryKey;size:64" json:"binId"`
	Latitude        float64   `gorm:"column:latitude;not null" json:"latitude"`
	Longitude       float64   `gorm:"column:longitude;not null" json:"longitude"`
	AreaName        string    `gorm:"column:area_name;size:128" json:"areaName"`
	CurrentCapacity float64   `gorm:"column:current_capacity" json:"current_capacity"`
	MaxCapacity     float64   `gorm:"column:max_capacity" json:"max_capacity"`
	Status          string    `gorm:"column:status;size:16" json:"status"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the default table name.
func (Bin) TableName() string {
	return "bins"
}

// User holds a submitter's cumulative rewards.
type User struct {
	ID             string    `gorm:"column:id;primaryKey;size:128" json:"uid"`
	Name           string    `gorm:"column:name;size:256" json:"name"`
	Email          string    `gorm:"column:email;size:256" json:"email"`
	TotalStars     int       `gorm:"column:total_stars" json:"totalStars"`
	TotalCredits   int       `gorm:"column:total_credits" json:"totalCredits"`
	TestsCompleted int       `gorm:"column:tests_completed" json:"testsCompleted"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}

// Report is the persisted evaluation of one submission, denials included.
type Report struct {
	ID                uint               `gorm:"primaryKey" json:"-"`
	RequestID         string             `gorm:"column:request_id;uniqueIndex;size:64" json:"request_id"`
	UserID            string             `gorm:"column:user_id;index;size:128" json:"user_id"`
	BinID             string             `gorm:"column:bin_id;index;size:64" json:"bin_id"`
	Outcome           string             `gorm:"column:outcome;size:32" json:"outcome"`
	Label             string             `gorm:"column:label;size:128" json:"label"`
	Confidence        float64            `gorm:"column:confidence" json:"confidence"`
	Predictions       map[string]float64 `gorm:"column:predictions;serializer:json;type:jsonb" json:"all_predictions"`
	Rating            int                `gorm:"column:rating" json:"rating"`
	Clarity           float64            `gorm:"column:clarity" json:"clarity"`
	Distance          float64            `gorm:"column:distance" json:"distance"`
	WasteCategory     string             `gorm:"column:waste_category;size:32" json:"waste_category"`
	EstimatedWeightKg float64            `gorm:"column:estimated_weight_kg" json:"estimated_weight_kg"`
	Recyclability     string             `gorm:"column:recyclability;size:32" json:"recyclability"`
	CreditsEarned     int                `gorm:"column:credits_earned" json:"credits_earned"`
	DenialReason      *string            `gorm:"column:denial_reason;size:128" json:"denial_reason"`
	Message           string             `gorm:"column:message;type:text" json:"message"`
	SHA1Hash          string             `gorm:"column:sha1_hash;index;size:40" json:"sha1_hash"`
	CreatedAt         time.Time          `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the default table name.
func (Report) TableName() string {
	return "reports"
}

// Passed reports whether the submission earned a rating.
func (r *Report) Passed() bool {
	return r.Rating > 0
}

// Reward is the change applied to a user after one submission.
type Reward struct {
	UserID  string
	Name    string
	Email   string
	Stars   int
	Credits int
}

// Aggregation summarizes stored reports.
type Aggregation struct {
	TotalCount   int64
	PassedCount  int64
	TotalStars   int64
	TotalCredits int64
}
