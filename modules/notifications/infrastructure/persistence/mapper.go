package persistence

import "github.com/rai/shop-workflow-go/modules/notifications/domain"

func toModel(r domain.Rule) RuleModel {
	m := RuleModel{
		ID:               r.ID,
		Name:             r.Name,
		TransitionTarget: r.TransitionTarget,
		Notify:           r.Notify.String(),
		Recipient:        r.Recipient,
		TemplateName:     r.Template.Name,
		DefaultLanguage:  r.Template.DefaultLanguage,
		Subject:          r.Template.Subject,
		Body:             r.Template.Body,
		HTMLBody:         r.Template.HTMLBody,
	}
	for lang, tr := range r.Template.Translations {
		m.Translations = append(m.Translations, TranslationModel{
			RuleID:   r.ID,
			Language: lang,
			Subject:  tr.Subject,
			Body:     tr.Body,
			HTMLBody: tr.HTMLBody,
		})
	}
	for i, a := range r.Attachments {
		m.Attachments = append(m.Attachments, AttachmentModel{
			RuleID:   r.ID,
			Position: i,
			Filename: a.Filename,
			Ref:      a.Ref,
		})
	}
	return m
}

func toDomain(m *RuleModel) domain.Rule {
	r := domain.Rule{
		ID:               m.ID,
		Name:             m.Name,
		TransitionTarget: m.TransitionTarget,
		Notify:           domain.Notify(m.Notify),
		Recipient:        m.Recipient,
		Template: domain.MailTemplate{
			Name:            m.TemplateName,
			DefaultLanguage: m.DefaultLanguage,
			Translation: domain.Translation{
				Subject:  m.Subject,
				Body:     m.Body,
				HTMLBody: m.HTMLBody,
			},
		},
	}
	if len(m.Translations) > 0 {
		r.Template.Translations = make(map[string]domain.Translation, len(m.Translations))
		for _, t := range m.Translations {
			r.Template.Translations[t.Language] = domain.Translation{
				Subject:  t.Subject,
				Body:     t.Body,
				HTMLBody: t.HTMLBody,
			}
		}
	}
	for _, a := range m.Attachments {
		r.Attachments = append(r.Attachments, domain.Attachment{Filename: a.Filename, Ref: a.Ref})
	}
	return r
}
