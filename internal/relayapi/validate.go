package relayapi

import (
	"fmt"
	"regexp"

	"github.com/cohesivestack/valgo"
)

var targetURLPattern = regexp.MustCompile(`^https?://`)

var validMethods = map[string]bool{"POST": true, "PUT": true, "PATCH": true, "": true}

// validateCreate applies spec §6's create-notification validation rules,
// returning a field→message map on failure (nil on success).
func validateCreate(req CreateNotificationRequest) map[string]string {
	v := valgo.Is(
		valgo.String(req.SourceSystem, "sourceSystem").Not().Blank().OfLenBetween(1, 100),
		valgo.String(req.TargetURL, "targetUrl").Not().Blank().MatchingTo(targetURLPattern, "must start with http:// or https://"),
	)

	v.Is(valgo.Bool(len(req.Body) > 0, "body").True("body is required"))

	if !validMethods[req.HTTPMethod] {
		v.Is(valgo.String(req.HTTPMethod, "httpMethod").InSlice([]string{"POST", "PUT", "PATCH"}))
	}

	if req.MaxRetries != nil {
		v.Is(valgo.Int(*req.MaxRetries, "maxRetries").Between(1, 10))
	}

	if v.Valid() {
		return nil
	}
	return fieldMessages(v)
}

func fieldMessages(v *valgo.Validation) map[string]string {
	out := map[string]string{}
	for field, errs := range v.Error().Errors() {
		msgs := errs.Messages()
		if len(msgs) > 0 {
			out[field] = msgs[0]
		} else {
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}
