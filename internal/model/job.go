package model

import (
	"time"

	"gorm.io/datatypes"
)

// Job 表示聚合后的标准职位记录
// 中文注释说明字段用途
// - ExternalID: 全局唯一，格式 "{source}_{平台原生ID}"，作为跨平台去重键
// - Source: 来源平台标签（adzuna、serpapi、indeed、linkedin、glassdoor、monster）
// - RequiredSkills/AIExtractedSkills: JSON 数组列
// - RawData: 平台原始响应，便于审计与回放
// - IsActive: 软删除标记，默认 true
// - ScrapedDate/UpdatedDate: 由 GORM 自动维护

type Job struct {
	ID                      uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID              string                      `gorm:"size:255;uniqueIndex;not null" json:"external_id"`
	Source                  string                      `gorm:"size:50;index;not null" json:"source"`
	Title                   string                      `gorm:"size:255;index" json:"title"`
	Company                 string                      `gorm:"size:255;index" json:"company"`
	Location                string                      `gorm:"size:255" json:"location"`
	Description             string                      `gorm:"type:text" json:"description"`
	URL                     string                      `gorm:"size:512" json:"url"`
	JobType                 string                      `gorm:"size:50" json:"job_type"`
	RemoteType              string                      `gorm:"size:50" json:"remote_type"`
	SalaryMin               *float64                    `json:"salary_min"`
	SalaryMax               *float64                    `json:"salary_max"`
	SalaryCurrency          string                      `gorm:"size:10;default:USD" json:"salary_currency"`
	RequiredSkills          datatypes.JSONSlice[string] `json:"required_skills"`
	RequiredExperienceYears *int                        `json:"required_experience_years"`
	EducationLevel          string                      `gorm:"size:100" json:"education_level"`
	AISummary               string                      `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	AIExtractedSkills       datatypes.JSONSlice[string] `gorm:"column:ai_extracted_skills" json:"ai_extracted_skills"`
	MatchScore              *float64                    `json:"match_score"`
	PostedDate              *time.Time                  `json:"posted_date"`
	ScrapedDate             time.Time                   `gorm:"autoCreateTime;not null" json:"scraped_date"`
	UpdatedDate             time.Time                   `gorm:"autoUpdateTime" json:"updated_date"`
	IsActive                bool                        `gorm:"default:true" json:"is_active"`
	RawData                 datatypes.JSONMap           `json:"raw_data,omitempty"`
}

// TableName 指定表名。
func (Job) TableName() string { return "jobs" }

// SearchHistory 记录一次 (keywords, location, source) 检索及其原始结果数。
// ResultsCount 为去重前的平台原始数量，与实际保存数可能不一致。
type SearchHistory struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Keywords     string            `gorm:"size:255;not null" json:"keywords"`
	Location     string            `gorm:"size:255" json:"location"`
	Source       string            `gorm:"size:50" json:"source"`
	ResultsCount int               `json:"results_count"`
	SearchDate   time.Time         `gorm:"autoCreateTime;not null" json:"search_date"`
	Parameters   datatypes.JSONMap `json:"parameters,omitempty"`
}

func (SearchHistory) TableName() string { return "search_history" }

// UserProfile 求职者画像，目前仅作为匹配打分的输入。
type UserProfile struct {
	ID                   uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name                 string                      `gorm:"size:255" json:"name"`
	Email                string                      `gorm:"size:255;uniqueIndex" json:"email"`
	Skills               datatypes.JSONSlice[string] `json:"skills"`
	ExperienceYears      int                         `json:"experience_years"`
	EducationLevel       string                      `gorm:"size:100" json:"education_level"`
	PreferredJobTypes    datatypes.JSONSlice[string] `json:"preferred_job_types"`
	PreferredLocations   datatypes.JSONSlice[string] `json:"preferred_locations"`
	PreferredRemoteType  string                      `gorm:"size:50" json:"preferred_remote_type"`
	SalaryExpectationMin *float64                    `json:"salary_expectation_min"`
	SalaryExpectationMax *float64                    `json:"salary_expectation_max"`
	ResumeText           string                      `gorm:"type:text" json:"resume_text"`
	CreatedDate          time.Time                   `gorm:"autoCreateTime;not null" json:"created_date"`
	UpdatedDate          time.Time                   `gorm:"autoUpdateTime" json:"updated_date"`
}

func (UserProfile) TableName() string { return "user_profiles" }
