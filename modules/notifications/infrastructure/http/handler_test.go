package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rai/shop-workflow-go/modules/notifications/application"
	notificationshttp "github.com/rai/shop-workflow-go/modules/notifications/infrastructure/http"
	"github.com/rai/shop-workflow-go/modules/notifications/infrastructure/persistence"
)

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	notificationshttp.RegisterRoutes(mux, application.NewRuleService(persistence.NewInMemoryRuleRepository()))
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestRuleRoutes(t *testing.T) {
	mux := newMux()

	rec := do(t, mux, http.MethodPost, "/notification-rules", `{
		"name": "shipped mail",
		"transition_target": "order_shipped",
		"notify": "customer",
		"template_name": "shipped",
		"default_language": "en",
		"subject": "Shipped",
		"body": "On its way",
		"translations": {"de": {"subject": "Versandt", "body": "Unterwegs"}},
		"attachments": [{"filename": "AGB.pdf", "ref": "legal/terms.pdf"}]
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		ID           string `json:"id"`
		Translations map[string]struct {
			Subject string `json:"subject"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if created.ID == "" || created.Translations["de"].Subject != "Versandt" {
		t.Errorf("unexpected response %+v", created)
	}

	rec = do(t, mux, http.MethodGet, "/notification-rules", "")
	var list []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 rule, got %d", len(list))
	}

	if rec = do(t, mux, http.MethodDelete, "/notification-rules/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec = do(t, mux, http.MethodDelete, "/notification-rules/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestRuleRoutes_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "unknown selector", body: `{"transition_target":"x","notify":"all","subject":"s","body":"b"}`},
		{name: "missing target", body: `{"notify":"customer","subject":"s","body":"b"}`},
		{name: "missing template", body: `{"transition_target":"x","notify":"customer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newMux(), http.MethodPost, "/notification-rules", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}
