package models

import "time"

// SocialHandles holds a profile's optional social-media usernames.
// Stored embedded in the profile row; empty handles are omitted from JSON.
type SocialHandles struct {
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

// Profile is a user's developer profile. Exactly one profile exists per user
// (upsert semantics keyed by UserID). Experience and education entries are
// child rows addressed by their own id, ordered most-recent-first.
type Profile struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;uniqueIndex" json:"user_id"`
	User      *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company   string        `json:"company,omitempty"`
	Website   string        `json:"website,omitempty"`
	Location  string        `json:"location,omitempty"`
	Status    string        `gorm:"not null" json:"status"`
	Skills    []string      `gorm:"serializer:json" json:"skills"`
	Bio       string        `gorm:"type:text" json:"bio,omitempty"`
	Social    SocialHandles `gorm:"embedded;embeddedPrefix:social_" json:"social"`
	Experience []Experience `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"experience"`
	Education  []Education  `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"education"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Experience is an embedded work-history entry on a profile.
type Experience struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProfileID   uint       `gorm:"not null;index" json:"-"`
	Title       string     `gorm:"not null" json:"title"`
	Company     string     `gorm:"not null" json:"company"`
	Location    string     `json:"location,omitempty"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Current     bool       `json:"current"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Education is an embedded schooling entry on a profile.
type Education struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProfileID    uint       `gorm:"not null;index" json:"-"`
	School       string     `gorm:"not null" json:"school"`
	Degree       string     `gorm:"not null" json:"degree"`
	FieldOfStudy string     `gorm:"not null" json:"field_of_study"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	StartDate    time.Time  `gorm:"not null" json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Current      bool       `json:"current"`
	CreatedAt    time.Time  `json:"created_at"`
}
