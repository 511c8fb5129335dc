package persistence

import "time"

// RuleModel maps to the notification_rules table.
type RuleModel struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string `gorm:"size:200"`
	TransitionTarget string `gorm:"size:100;index"`
	Notify           string `gorm:"size:120"`
	Recipient        string `gorm:"size:36"`
	TemplateName     string `gorm:"size:200"`
	DefaultLanguage  string `gorm:"size:35"`
	Subject          string `gorm:"type:text"`
	Body             string `gorm:"type:text"`
	HTMLBody         string `gorm:"type:mediumtext"`
	CreatedAt        time.Time

	Translations []TranslationModel `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`
	Attachments  []AttachmentModel  `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`
}

func (RuleModel) TableName() string {
	return "notification_rules"
}

// TranslationModel maps to the notification_rule_translations table.
type TranslationModel struct {
	ID       uint   `gorm:"primaryKey"`
	RuleID   string `gorm:"size:36;uniqueIndex:idx_rule_language"`
	Language string `gorm:"size:35;uniqueIndex:idx_rule_language"`
	Subject  string `gorm:"type:text"`
	Body     string `gorm:"type:text"`
	HTMLBody string `gorm:"type:mediumtext"`
}

func (TranslationModel) TableName() string {
	return "notification_rule_translations"
}

// AttachmentModel maps to the notification_rule_attachments table.
type AttachmentModel struct {
	ID       uint   `gorm:"primaryKey"`
	RuleID   string `gorm:"size:36;index"`
	Position int
	Filename string `gorm:"size:255"`
	Ref      string `gorm:"size:1024"`
}

func (AttachmentModel) TableName() string {
	return "notification_rule_attachments"
}
