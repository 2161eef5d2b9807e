package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Stage values of an opportunity line.
const (
	StageOpen       = "Open"
	StageClosedWon  = "Closed Won"
	StageClosedLost = "Closed Lost"
)

// Opportunity solution line. Header attributes are denormalized onto every line.
type Opportunity struct {
	UID              string         `json:"uid" gorm:"primaryKey;size:200"`
	OpportunityID    string         `json:"opportunity_id" gorm:"size:100;not null;index"`
	ProductID        string         `json:"product_id" gorm:"size:100"`
	PresalesName     string         `json:"presales_name" gorm:"size:100;index"`
	SalesGroupID     string         `json:"salesgroup_id" gorm:"column:salesgroup_id;size:50"`
	SalesName        string         `json:"sales_name" gorm:"size:100"`
	ResponsibleName  string         `json:"responsible_name" gorm:"size:100"`
	OpportunityName  string         `json:"opportunity_name" gorm:"size:500;not null"`
	StartDate        datatypes.Date `json:"start_date"`
	CompanyName      string         `json:"company_name" gorm:"size:200;not null"`
	VerticalIndustry string         `json:"vertical_industry" gorm:"size:100"`
	Pillar           string         `json:"pillar" gorm:"size:100;index"`
	Solution         string         `json:"solution" gorm:"size:200"`
	Service          string         `json:"service" gorm:"size:200"`
	PillarProduct    *string        `json:"pillar_product" gorm:"size:200"`
	SolutionProduct  *string        `json:"solution_product" gorm:"size:200"`
	Brand            string         `json:"brand" gorm:"size:100"`
	Channel          string         `json:"channel" gorm:"size:100"`
	DistributorName  string         `json:"distributor_name" gorm:"size:200"`
	Cost             int64          `json:"cost" gorm:"not null;default:0"`
	Notes            string         `json:"notes" gorm:"type:text"`
	Stage            string         `json:"stage" gorm:"size:20;not null;default:Open"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// SalesOpportunity header synced to the sales-facing table, created only if absent.
type SalesOpportunity struct {
	OpportunityID   string    `json:"opportunity_id" gorm:"primaryKey;size:100"`
	OpportunityName string    `json:"opportunity_name" gorm:"size:500"`
	SalesGroupID    string    `json:"salesgroup_id" gorm:"column:salesgroup_id;size:50"`
	SalesName       string    `json:"sales_name" gorm:"size:100"`
	CompanyName     string    `json:"company_name" gorm:"size:200"`
	Stage           string    `json:"stage" gorm:"size:20;default:Open"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (SalesOpportunity) TableName() string {
	return "sales_opportunities"
}

// Description binds a free-text opportunity description to its rows id. Rows are never deleted.
type Description struct {
	RowsID      string    `json:"rows_id" gorm:"column:rows_id;primaryKey;size:10"`
	Description string    `json:"description" gorm:"size:500;not null;uniqueIndex:uk_description_text"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Description) TableName() string {
	return "description"
}
