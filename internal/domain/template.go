package domain

import "fmt"

// TemplateID identifies a message template in the provider's catalog.
// The id sent on the wire is the catalog name itself.
type TemplateID string

const (
	TemplateAuthCode          TemplateID = "auth-code"
	TemplateOrderConfirmation TemplateID = "order-confirmation"
	TemplateOrderCancellation TemplateID = "order-cancellation-generic"
	TemplateOrderNoShow       TemplateID = "order-cancellation-no-show"
)

// templateParams is the static catalog of declared parameter names per
// template, loaded once at build time. The provider only accepts a template
// id plus parameters, so the human-readable text is rendered client-side
// from the same set (see RenderMessage).
var templateParams = map[TemplateID][]string{
	TemplateAuthCode:          {"code"},
	TemplateOrderConfirmation: {"venue", "order", "date", "time", "hall", "row_and_places", "url"},
	TemplateOrderCancellation: {"order"},
	TemplateOrderNoShow:       {"film_name", "venue", "order"},
}

// KnownTemplate reports whether the template exists in the catalog.
func KnownTemplate(id TemplateID) bool {
	_, ok := templateParams[id]
	return ok
}

// TemplateParamNames returns the declared parameter names for a template.
func TemplateParamNames(id TemplateID) []string {
	return templateParams[id]
}

// ProjectParams keeps only the caller-supplied parameters whose names the
// template declares. Unknown keys are dropped silently; declared keys the
// caller did not supply are simply absent from the result.
func ProjectParams(id TemplateID, params map[string]string) (map[string]string, error) {
	declared, ok := templateParams[id]
	if !ok {
		return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	out := make(map[string]string, len(declared))
	for _, name := range declared {
		if v, ok := params[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

// RenderMessage builds the full message text for the SMS path from the same
// parameter set the push template uses.
func RenderMessage(id TemplateID, params map[string]string) string {
	switch id {
	case TemplateAuthCode:
		return "Your verification code: " + params["code"]
	case TemplateOrderConfirmation:
		return fmt.Sprintf("%s, order %s, %s %s, hall %s, %s, %s",
			params["venue"], params["order"], params["date"], params["time"],
			params["hall"], params["row_and_places"], params["url"])
	case TemplateOrderCancellation:
		return fmt.Sprintf("Order %s has been cancelled", params["order"])
	case TemplateOrderNoShow:
		return fmt.Sprintf("The screening of %q at %s will not take place and your order %s has been cancelled. "+
			"The refund will reach your card within 3 to 10 business days.",
			params["film_name"], params["venue"], params["order"])
	}
	return ""
}
