package models

// Domain models matching the database schema in internal/db/migrations/0001_init.sql

// Category is the fixed service/user category enumeration.
type Category string

const (
	CategoryLegal        Category = "legal"
	CategoryTech         Category = "tech"
	CategoryCreative     Category = "creative"
	CategoryFashion      Category = "fashion"
	CategoryFood         Category = "food"
	CategoryProfessional Category = "professional"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryLegal, CategoryTech, CategoryCreative,
	CategoryFashion, CategoryFood, CategoryProfessional,
}

func ValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// SkillLevel is the self-declared proficiency attached to a service.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillExpert       SkillLevel = "expert"
)

func ValidSkillLevel(s SkillLevel) bool {
	return s == SkillBeginner || s == SkillIntermediate || s == SkillExpert
}

// TradeStatus is the trade lifecycle enumeration.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeActive    TradeStatus = "active"
	TradeCompleted TradeStatus = "completed"
	TradeDisputed  TradeStatus = "disputed"
)

// Terminal reports whether a trade in this status can never transition again.
func (s TradeStatus) Terminal() bool {
	return s == TradeCompleted || s == TradeDisputed
}

type User struct {
	ID            string   `json:"id" db:"id"`
	Name          string   `json:"name" db:"name"`
	Email         string   `json:"email" db:"email"`
	PasswordHash  string   `json:"password_hash,omitempty" db:"password_hash"`
	Category      Category `json:"category" db:"category"`
	Location      string   `json:"location" db:"location"`
	TrustScore    int      `json:"trust_score" db:"trust_score"`
	PhoneVerified bool     `json:"phone_verified" db:"phone_verified"`
	EmailVerified bool     `json:"email_verified" db:"email_verified"`
	Registered    bool     `json:"registered" db:"registered"`
	Onboarded     bool     `json:"onboarded" db:"onboarded"`
	Blocked       bool     `json:"blocked" db:"blocked"`
	Created       int64    `json:"created" db:"created"`
	Updated       int64    `json:"updated" db:"updated"`
}

type Service struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Category    Category   `json:"category" db:"category"`
	HourlyRate  float64    `json:"hourly_rate" db:"hourly_rate"`
	Available   bool       `json:"available" db:"available"`
	SkillLevel  SkillLevel `json:"skill_level" db:"skill_level"`
	Created     int64      `json:"created" db:"created"`
	Updated     int64      `json:"updated" db:"updated"`
}

// Trade relates two users and one service from each side. Hours may be
// asymmetric. Completed stays nil for every status except "completed".
type Trade struct {
	ID                 string      `json:"id" db:"id"`
	ProposerID         string      `json:"proposer_id" db:"proposer_id"`
	ProviderID         string      `json:"provider_id" db:"provider_id"`
	ServiceOfferedID   string      `json:"service_offered_id" db:"service_offered_id"`
	ServiceRequestedID string      `json:"service_requested_id" db:"service_requested_id"`
	HoursOffered       int64       `json:"hours_offered" db:"hours_offered"`
	HoursRequested     int64       `json:"hours_requested" db:"hours_requested"`
	Status             TradeStatus `json:"status" db:"status"`
	DisputeReason      string      `json:"dispute_reason,omitempty" db:"dispute_reason"`
	Created            int64       `json:"created" db:"created"`
	Completed          *int64      `json:"completed,omitempty" db:"completed"`
}

// Participant reports whether the given user is one of the trade's two sides.
func (t *Trade) Participant(userID string) bool {
	return userID == t.ProposerID || userID == t.ProviderID
}

type Message struct {
	ID       string `json:"id" db:"id"`
	TradeID  string `json:"trade_id" db:"trade_id"`
	SenderID string `json:"sender_id" db:"sender_id"`
	Text     string `json:"text" db:"text"`
	Created  int64  `json:"created" db:"created"`
}
