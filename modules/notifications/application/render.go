package application

import (
	"bytes"
	htmltemplate "html/template"
	"math"
	texttemplate "text/template"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rai/shop-workflow-go/modules/notifications/domain"
	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// TemplateData is the root object templates are executed against.
type TemplateData struct {
	Order      contracts.OrderSnapshot
	OrderID    string
	Transition string
	From       string
	To         string
	Request    RequestContext
	Recipient  domain.Address
}

type rendered struct {
	Subject  string
	Body     string
	HTMLBody string
}

func render(tr domain.Translation, tag language.Tag, data TemplateData) (rendered, error) {
	funcs := templateFuncs(tag)
	var out rendered
	var err error

	if out.Subject, err = execText("subject", tr.Subject, funcs, data); err != nil {
		return rendered{}, err
	}
	if tr.Body != "" {
		if out.Body, err = execText("body", tr.Body, funcs, data); err != nil {
			return rendered{}, err
		}
	}
	if tr.HTMLBody != "" {
		t, err := htmltemplate.New("html").Funcs(htmltemplate.FuncMap(funcs)).Parse(tr.HTMLBody)
		if err != nil {
			return rendered{}, err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return rendered{}, err
		}
		out.HTMLBody = buf.String()
	}
	return out, nil
}

func execText(name, src string, funcs map[string]any, data TemplateData) (string, error) {
	t, err := texttemplate.New(name).Funcs(funcs).Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func templateFuncs(tag language.Tag) map[string]any {
	p := message.NewPrinter(tag)
	return map[string]any{
		// money formats an amount in minor units, e.g. {{money .Order.TotalAmount .Order.Currency}}
		"money": func(minor int64, code string) string {
			unit, err := currency.ParseISO(code)
			if err != nil {
				return p.Sprintf("%d %s", minor, code)
			}
			scale, _ := currency.Standard.Rounding(unit)
			amount := float64(minor) / math.Pow10(scale)
			return p.Sprint(currency.Symbol(unit.Amount(amount)))
		},
	}
}
