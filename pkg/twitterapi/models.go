package twitterapi

// Source identifies which read API produced a post payload
type Source string

const (
	// SourceFxTwitter is the primary read API
	SourceFxTwitter Source = "fxtwitter"
	// SourceSyndication is the secondary read API
	SourceSyndication Source = "syndication"
)

// FxResponse is the fxtwitter API envelope. A payload is recognizable as
// valid when the tweet object is present.
type FxResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Tweet   *FxTweet `json:"tweet"`
}

// FxTweet is a post as the fxtwitter API reports it
type FxTweet struct {
	URL       string     `json:"url"`
	Text      string     `json:"text"`
	CreatedAt string     `json:"created_at"`
	Author    FxAuthor   `json:"author"`
	Likes     int        `json:"likes"`
	Retweets  int        `json:"retweets"`
	Replies   int        `json:"replies"`
	Views     int        `json:"views"`
	Bookmarks int        `json:"bookmarks"`
	Media     *FxMedia   `json:"media"`
	Article   *FxArticle `json:"article"`
}

// FxAuthor identifies the post author
type FxAuthor struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// FxMedia groups all media attachments of a post
type FxMedia struct {
	All []FxMediaItem `json:"all"`
}

// FxMediaItem is a single media attachment
type FxMediaItem struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// FxArticle is a long-form article attached to a post
type FxArticle struct {
	Title      string           `json:"title"`
	CreatedAt  string           `json:"created_at"`
	ModifiedAt string           `json:"modified_at"`
	CoverImage string           `json:"cover_image"`
	Content    FxArticleContent `json:"content"`
}

// FxArticleContent holds the article body as typed blocks
type FxArticleContent struct {
	Blocks []FxArticleBlock `json:"blocks"`
}

// FxArticleBlock is one paragraph-level unit of an article body. Type is one
// of the draft-js block types (header-one, blockquote, unordered-list-item,
// ...) or "unstyled" for plain paragraphs.
type FxArticleBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SyndicationResponse is the syndication API payload. A payload is
// recognizable as valid when the text field is non-empty.
type SyndicationResponse struct {
	Text          string                   `json:"text"`
	CreatedAt     string                   `json:"created_at"`
	User          SyndicationUser          `json:"user"`
	FavoriteCount int                      `json:"favorite_count"`
	RetweetCount  int                      `json:"retweet_count"`
	MediaDetails  []SyndicationMediaDetail `json:"mediaDetails"`
}

// SyndicationUser identifies the post author in syndication payloads
type SyndicationUser struct {
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
}

// SyndicationMediaDetail is a single media attachment in syndication payloads
type SyndicationMediaDetail struct {
	MediaURLHTTPS string `json:"media_url_https"`
}

// Post is an enriched post: the original URL plus whichever API payload won
type Post struct {
	URL         string
	Source      Source
	Tweet       *FxTweet
	Syndication *SyndicationResponse
}
