package models

type User struct {
	BaseModel
	Email        string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string  `json:"username" gorm:"type:varchar(30);not null"`
	PasswordHash string  `json:"-" gorm:"type:text;not null"`
	AvatarURL    *string `json:"avatarURL,omitempty" gorm:"type:text"`

	Memberships []Membership `json:"-" gorm:"foreignKey:UserID"`
}

// PersonRef is the projection of a user embedded in people listings and
// rendered log entries. Names are resolved at read time, so a renamed
// user shows up under their current name everywhere.
type PersonRef struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

func (u *User) Ref() PersonRef {
	return PersonRef{ID: u.ID.String(), Name: u.Username, Avatar: u.AvatarURL}
}
