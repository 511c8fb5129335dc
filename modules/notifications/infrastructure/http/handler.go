// Package http exposes notification rule management over HTTP.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rai/shop-workflow-go/modules/notifications/application"
	"github.com/rai/shop-workflow-go/modules/notifications/domain"
)

type handler struct {
	rules *application.RuleService
}

// RegisterRoutes registers the notification routes to the given mux.
func RegisterRoutes(mux *http.ServeMux, rules *application.RuleService) {
	h := &handler{rules: rules}

	mux.HandleFunc("GET /notification-rules", h.handleList)
	mux.HandleFunc("POST /notification-rules", h.handleCreate)
	mux.HandleFunc("DELETE /notification-rules/{id}", h.handleDelete)
}

type translationPayload struct {
	Subject  string `json:"subject"`
	Body     string `json:"body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
}

type attachmentPayload struct {
	Filename string `json:"filename"`
	Ref      string `json:"ref"`
}

type rulePayload struct {
	ID               string                        `json:"id,omitempty"`
	Name             string                        `json:"name"`
	TransitionTarget string                        `json:"transition_target"`
	Notify           string                        `json:"notify"`
	Recipient        string                        `json:"recipient,omitempty"`
	TemplateName     string                        `json:"template_name"`
	DefaultLanguage  string                        `json:"default_language"`
	Subject          string                        `json:"subject"`
	Body             string                        `json:"body,omitempty"`
	HTMLBody         string                        `json:"html_body,omitempty"`
	Translations     map[string]translationPayload `json:"translations,omitempty"`
	Attachments      []attachmentPayload           `json:"attachments,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req rulePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tmpl := domain.MailTemplate{
		Name:            req.TemplateName,
		DefaultLanguage: req.DefaultLanguage,
		Translation: domain.Translation{
			Subject:  req.Subject,
			Body:     req.Body,
			HTMLBody: req.HTMLBody,
		},
	}
	if len(req.Translations) > 0 {
		tmpl.Translations = make(map[string]domain.Translation, len(req.Translations))
		for lang, tr := range req.Translations {
			tmpl.Translations[lang] = domain.Translation(tr)
		}
	}
	attachments := make([]domain.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, domain.Attachment(a))
	}

	rule, err := h.rules.Create(r.Context(), application.CreateRuleCommand{
		Name:             req.Name,
		TransitionTarget: req.TransitionTarget,
		Notify:           req.Notify,
		Recipient:        req.Recipient,
		Template:         tmpl,
		Attachments:      attachments,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayload(rule))
}

func (h *handler) handleList(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]rulePayload, 0, len(rules))
	for _, rule := range rules {
		out = append(out, toPayload(rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.rules.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toPayload(rule domain.Rule) rulePayload {
	p := rulePayload{
		ID:               rule.ID,
		Name:             rule.Name,
		TransitionTarget: rule.TransitionTarget,
		Notify:           rule.Notify.String(),
		Recipient:        rule.Recipient,
		TemplateName:     rule.Template.Name,
		DefaultLanguage:  rule.Template.DefaultLanguage,
		Subject:          rule.Template.Subject,
		Body:             rule.Template.Body,
		HTMLBody:         rule.Template.HTMLBody,
	}
	if len(rule.Template.Translations) > 0 {
		p.Translations = make(map[string]translationPayload, len(rule.Template.Translations))
		for lang, tr := range rule.Template.Translations {
			p.Translations[lang] = translationPayload(tr)
		}
	}
	for _, a := range rule.Attachments {
		p.Attachments = append(p.Attachments, attachmentPayload(a))
	}
	return p
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrTargetRequired),
		errors.Is(err, domain.ErrInvalidNotify),
		errors.Is(err, domain.ErrRecipientRequired),
		errors.Is(err, domain.ErrTemplateRequired),
		errors.Is(err, domain.ErrInvalidAttachment),
		errors.Is(err, domain.ErrDuplicateFilename),
		errors.Is(err, domain.ErrInvalidTranslation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
