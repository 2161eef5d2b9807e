package entity

// MasterPillar pillar/solution/service catalog row with its product codes
type MasterPillar struct {
	ID           uint   `json:"-" gorm:"primaryKey"`
	PillarName   string `json:"pillar_name" gorm:"size:100;index:idx_pillar_triple"`
	SolutionName string `json:"solution_name" gorm:"size:200;index:idx_pillar_triple"`
	ServiceName  string `json:"service_name" gorm:"size:200;index:idx_pillar_triple"`
	PillarID     string `json:"pillar_id" gorm:"size:20"`
	SolutionID   string `json:"solution_id" gorm:"size:20"`
	ServiceID    string `json:"service_id" gorm:"size:20"`
}

func (MasterPillar) TableName() string {
	return "master_pillars"
}

// Brand catalog row. A brand sold through several channels has one row per channel.
type Brand struct {
	ID        uint   `json:"-" gorm:"primaryKey"`
	BrandName string `json:"brand_name" gorm:"size:100;index"`
	BrandID   string `json:"brand_id" gorm:"size:20"`
	Channel   string `json:"channel" gorm:"size:100"`
}

func (Brand) TableName() string {
	return "brands"
}

type Company struct {
	CompanyName      string `json:"company_name" gorm:"primaryKey;size:200"`
	VerticalIndustry string `json:"vertical_industry" gorm:"size:100"`
}

func (Company) TableName() string {
	return "companies"
}

// Presales staff member and the access group that scopes what they can list.
type Presales struct {
	PresalesName string `json:"presales_name" gorm:"primaryKey;size:100"`
	Email        string `json:"email" gorm:"size:200"`
	AccessGroup  string `json:"access_group" gorm:"size:50;index"`
}

func (Presales) TableName() string {
	return "presales"
}

// MappingPAM maps an inputter to their Presales Account Manager.
type MappingPAM struct {
	InputterName string `json:"inputter_name" gorm:"primaryKey;size:100"`
	PAMName      string `json:"pam_name" gorm:"size:100"`
}

func (MappingPAM) TableName() string {
	return "mapping_pam"
}

// All returns every entity for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Description{},
		&SalesOpportunity{},
		&Opportunity{},
		&ActivityLog{},
		&MasterPillar{},
		&Brand{},
		&Company{},
		&Presales{},
		&MappingPAM{},
	}
}
