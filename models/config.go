package models

// Config is the single-row application configuration record. Only
// DefaultRefusalHours is consulted by the core, and only when an assignment
// is recorded as refused.
type Config struct {
	ID                  int     `gorm:"primaryKey" json:"id"`
	DefaultRefusalHours float64 `gorm:"not null;type:numeric(5,2);default:8" json:"default_refusal_hours"`
}

func (Config) TableName() string {
	return "config"
}
