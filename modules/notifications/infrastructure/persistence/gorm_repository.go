package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

// GormRuleRepository implements domain.RuleRepository on MySQL through GORM.
type GormRuleRepository struct {
	db *gorm.DB
}

func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// Migrate creates or updates the rule tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RuleModel{}, &TranslationModel{}, &AttachmentModel{})
}

func (r *GormRuleRepository) Save(ctx context.Context, rule domain.Rule) error {
	m := toModel(rule)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("rule_id = ?", m.ID).Delete(&TranslationModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("rule_id = ?", m.ID).Delete(&AttachmentModel{}).Error; err != nil {
			return err
		}
		if len(m.Translations) > 0 {
			if err := tx.Create(&m.Translations).Error; err != nil {
				return err
			}
		}
		if len(m.Attachments) > 0 {
			if err := tx.Create(&m.Attachments).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormRuleRepository) FindByTarget(ctx context.Context, target string) ([]domain.Rule, error) {
	var models []RuleModel
	err := r.preloaded(ctx).
		Where("transition_target = ?", target).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainRules(models), nil
}

func (r *GormRuleRepository) List(ctx context.Context) ([]domain.Rule, error) {
	var models []RuleModel
	if err := r.preloaded(ctx).Order("transition_target, created_at, id").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainRules(models), nil
}

func (r *GormRuleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&RuleModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrRuleNotFound
		}
		if err := tx.Where("rule_id = ?", id).Delete(&TranslationModel{}).Error; err != nil {
			return err
		}
		return tx.Where("rule_id = ?", id).Delete(&AttachmentModel{}).Error
	})
}

func (r *GormRuleRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Translations").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		})
}

func toDomainRules(models []RuleModel) []domain.Rule {
	rules := make([]domain.Rule, 0, len(models))
	for i := range models {
		rules = append(rules, toDomain(&models[i]))
	}
	return rules
}

var _ domain.RuleRepository = (*GormRuleRepository)(nil)
