package redditweb

import (
	"time"

	"github.com/DJSwig/redup-demo/pkg/redup"
)

// aboutPayload is the shared shape of the public about.json and the
// authenticated /r/<name>/about responses. The public variant omits
// user_is_banned; decoding tolerates both.
type aboutPayload struct {
	Data aboutData `json:"data"`
}

type aboutData struct {
	DisplayNamePrefixed string  `json:"display_name_prefixed"`
	Title               string  `json:"title"`
	PublicDescription   string  `json:"public_description"`
	SubredditType       string  `json:"subreddit_type"`
	Subscribers         *int    `json:"subscribers"`
	CreatedUTC          float64 `json:"created_utc"`
	Over18              bool    `json:"over18"`
	Quarantine          bool    `json:"quarantine"`
	UserIsBanned        bool    `json:"user_is_banned"`
}

func (d aboutData) profile(short string) *redup.CommunityProfile {
	p := &redup.CommunityProfile{
		Name:        redup.CanonicalName(short),
		Title:       d.Title,
		Description: d.PublicDescription,
		Type:        d.SubredditType,
		Over18:      d.Over18,
		Quarantine:  d.Quarantine,
		UserBanned:  d.UserIsBanned,
	}
	if d.Subscribers != nil {
		p.Subscribers = *d.Subscribers
	}
	if p.Type == "" {
		p.Type = "public"
	}
	if d.CreatedUTC > 0 {
		p.Created = time.Unix(int64(d.CreatedUTC), 0).UTC()
	}
	return p
}

// APIRule is one rule object as returned by both the authenticated and
// the public structured rules endpoints.
type APIRule struct {
	Priority        *int   `json:"priority"`
	ShortName       string `json:"short_name"`
	Description     string `json:"description"`
	DescriptionHTML string `json:"description_html"`
	ViolationReason string `json:"violation_reason"`
}

type rulesPayload struct {
	Rules []APIRule `json:"rules"`
}

type searchPayload struct {
	Data struct {
		Children []struct {
			Data struct {
				DisplayNamePrefixed string `json:"display_name_prefixed"`
				DisplayName         string `json:"display_name"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
