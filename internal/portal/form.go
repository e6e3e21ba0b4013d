package portal

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FormState is a redirect form found in a reader response
type FormState struct {
	Action string
	Fields url.Values
}

// FormResult is the outcome of a completed form dance
type FormResult struct {
	Body     string
	FinalURL string
	// Hops counts every request issued, the initial GET included.
	Hops int
}

// ParseForm reports whether body carries a redirect form. When several
// forms have an action, the last one wins. Every named input in the page
// is resubmitted; a repeated name keeps its last value.
func ParseForm(body string) (FormState, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return FormState{}, false
	}

	form := doc.Find("form[action]").Last()
	if form.Length() == 0 {
		return FormState{}, false
	}
	action, _ := form.Attr("action")
	if strings.TrimSpace(action) == "" {
		return FormState{}, false
	}

	fields := url.Values{}
	doc.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		value, _ := s.Attr("value")
		fields.Set(name, value)
	})

	return FormState{Action: strings.TrimSpace(action), Fields: fields}, true
}

// FormDance exchanges a catalog link for the reader's initial HTML by
// following redirect forms until a page without one is reached. Cookies
// set along the way land in the shared session.
func (c *Client) FormDance(ctx context.Context, entryURL string) (*FormResult, error) {
	body, current, err := c.fetchText(ctx, http.MethodGet, entryURL, nil)
	if err != nil {
		return nil, err
	}
	hops := 1
	posts := 0

	for {
		state, redirecting := ParseForm(body)
		if !redirecting {
			break
		}
		if posts >= c.opts.MaxFormHops {
			return nil, &NavigationError{URL: current.String(), Hops: hops, Limit: c.opts.MaxFormHops}
		}

		target, err := current.Parse(state.Action)
		if err != nil {
			return nil, &NetworkError{Method: http.MethodPost, URL: state.Action, Err: err}
		}

		c.log.Debug("form hop", "hop", posts+1, "action", target.String(), "fields", len(state.Fields))
		body, current, err = c.fetchText(ctx, http.MethodPost, target.String(), state.Fields)
		if err != nil {
			return nil, err
		}
		hops++
		posts++
	}

	return &FormResult{Body: body, FinalURL: current.String(), Hops: hops}, nil
}
