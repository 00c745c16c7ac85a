package models

import "time"

// Technology is reference data a project can be tagged with.
type Technology struct {
	ID        uint      `json:"id" db:"id" gorm:"column:id;primaryKey"`
	Name      string    `json:"name" db:"name" gorm:"column:name;type:text;not null;uniqueIndex"`
	Color     *string   `json:"color,omitempty" db:"color" gorm:"column:color;type:varchar(7)"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"column:updated_at"`
}
