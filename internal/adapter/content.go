package adapter

import (
	"fmt"

	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
)

// Content action types.
const (
	TypeTweetPost   = "tweet_post"
	TypeBlogPublish = "blog_publish"
)

// PublishRequest is the content engine's domain request.
type PublishRequest struct {
	Kind  string // tweet_post | blog_publish
	Title string
	Body  string
}

// ContentAdapter maps publishing requests to actions. Everything it
// emits is externally visible; posts are reversible in the narrow sense
// that they can be deleted, but the visibility factor keeps their risk up.
type ContentAdapter struct {
	publish executor.Handler
	retract executor.Handler
}

func NewContentAdapter(publish, retract executor.Handler) *ContentAdapter {
	return &ContentAdapter{publish: publish, retract: retract}
}

func (c *ContentAdapter) Category() model.Category { return model.CategoryContent }

func (c *ContentAdapter) Translate(request any) (*model.Action, error) {
	req, ok := request.(PublishRequest)
	if !ok {
		return nil, fmt.Errorf("adapter: content adapter got %T", request)
	}
	switch req.Kind {
	case TypeTweetPost, TypeBlogPublish:
	default:
		return nil, fmt.Errorf("adapter: unknown publish kind %q", req.Kind)
	}
	if req.Body == "" {
		return nil, fmt.Errorf("adapter: publish request has no body")
	}

	a := model.NewAction(model.CategoryContent, req.Kind, "content")
	a.Reversible = true
	a.ExternallyVisible = true
	a.Payload = map[string]any{
		"title": req.Title,
		"body":  req.Body,
	}
	return a, nil
}

func (c *ContentAdapter) RegisterExecutors(reg *executor.Registry) {
	for _, typ := range []string{TypeTweetPost, TypeBlogPublish} {
		reg.Register(typ, c.publish)
		if c.retract != nil {
			reg.RegisterRollback(typ, c.retract)
		}
	}
}
