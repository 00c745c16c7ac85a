package models

// ProjectTechnology is a row of the project/technology pivot table.
type ProjectTechnology struct {
	ProjectID    uint `json:"project_id" db:"project_id" gorm:"column:project_id;primaryKey;autoIncrement:false;index:idx_project_technology_project_id"`
	TechnologyID uint `json:"technology_id" db:"technology_id" gorm:"column:technology_id;primaryKey;autoIncrement:false"`

	Technology Technology `json:"-" gorm:"foreignKey:TechnologyID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ProjectTechnology) TableName() string {
	return "project_technology"
}
