// Package report renders enriched posts as markdown and writes the run's
// result artifacts: the incremental text file and the final markdown report.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"hotcrawl/pkg/twitterapi"
)

// RenderPost turns an enriched post into its markdown section. The shape
// depends on what the winning read API reported: a long-form article, a plain
// post, or the reduced syndication payload.
func RenderPost(post *twitterapi.Post) string {
	switch post.Source {
	case twitterapi.SourceFxTwitter:
		if post.Tweet == nil {
			return ""
		}
		if post.Tweet.Article != nil {
			return renderArticle(post.Tweet, post.Tweet.Article, post.URL)
		}
		return renderTweet(post.Tweet, post.URL)
	case twitterapi.SourceSyndication:
		if post.Syndication == nil {
			return ""
		}
		return renderSyndication(post.Syndication, post.URL)
	default:
		return ""
	}
}

func renderTweet(tweet *twitterapi.FxTweet, url string) string {
	lines := []string{
		fmt.Sprintf("# Post by @%s", tweet.Author.ScreenName),
		"",
		fmt.Sprintf("> Author: **%s** (@%s)", tweet.Author.Name, tweet.Author.ScreenName),
		fmt.Sprintf("> Posted: %s", tweet.CreatedAt),
		fmt.Sprintf("> Source: %s", url),
		"",
		"---",
		"",
		tweet.Text,
		"",
	}

	var mediaURLs []string
	if tweet.Media != nil {
		for _, m := range tweet.Media.All {
			if m.URL != "" {
				mediaURLs = append(mediaURLs, m.URL)
			}
		}
	}
	lines = appendMedia(lines, mediaURLs)

	lines = append(lines,
		"---",
		"",
		"## Engagement",
		"",
		fmt.Sprintf("- Likes: %s", comma(tweet.Likes)),
		fmt.Sprintf("- Retweets: %s", comma(tweet.Retweets)),
		fmt.Sprintf("- Views: %s", comma(tweet.Views)),
		fmt.Sprintf("- Replies: %s", comma(tweet.Replies)),
	)

	return strings.Join(lines, "\n")
}

func renderArticle(tweet *twitterapi.FxTweet, article *twitterapi.FxArticle, url string) string {
	title := article.Title
	if title == "" {
		title = "Untitled"
	}

	lines := []string{
		fmt.Sprintf("# %s", title),
		"",
		fmt.Sprintf("> Author: **%s** (@%s)", tweet.Author.Name, tweet.Author.ScreenName),
		fmt.Sprintf("> Posted: %s", article.CreatedAt),
	}

	if article.ModifiedAt != "" {
		lines = append(lines, fmt.Sprintf("> Modified: %s", article.ModifiedAt))
	}

	lines = append(lines,
		fmt.Sprintf("> Source: %s", url),
		"",
		"---",
		"",
	)

	if article.CoverImage != "" {
		lines = append(lines,
			fmt.Sprintf("![cover](%s)", article.CoverImage),
			"",
		)
	}

	if body := renderArticleBody(article); body != "" {
		lines = append(lines, body, "")
	}

	lines = append(lines,
		"---",
		"",
		"## Engagement",
		"",
		fmt.Sprintf("- Likes: %s", comma(tweet.Likes)),
		fmt.Sprintf("- Retweets: %s", comma(tweet.Retweets)),
		fmt.Sprintf("- Views: %s", comma(tweet.Views)),
		fmt.Sprintf("- Bookmarks: %s", comma(tweet.Bookmarks)),
	)

	return strings.Join(lines, "\n")
}

func renderSyndication(syn *twitterapi.SyndicationResponse, url string) string {
	lines := []string{
		fmt.Sprintf("# Post by @%s", syn.User.ScreenName),
		"",
		fmt.Sprintf("> Author: **%s** (@%s)", syn.User.Name, syn.User.ScreenName),
		fmt.Sprintf("> Posted: %s", syn.CreatedAt),
		fmt.Sprintf("> Source: %s", url),
		"",
		"---",
		"",
		syn.Text,
		"",
	}

	var mediaURLs []string
	for _, m := range syn.MediaDetails {
		if m.MediaURLHTTPS != "" {
			mediaURLs = append(mediaURLs, m.MediaURLHTTPS)
		}
	}
	lines = appendMedia(lines, mediaURLs)

	lines = append(lines,
		"---",
		"",
		"## Engagement",
		"",
		fmt.Sprintf("- Likes: %s", comma(syn.FavoriteCount)),
		fmt.Sprintf("- Retweets: %s", comma(syn.RetweetCount)),
	)

	return strings.Join(lines, "\n")
}

// renderArticleBody maps typed article blocks onto markdown paragraphs
func renderArticleBody(article *twitterapi.FxArticle) string {
	var paragraphs []string

	for _, block := range article.Content.Blocks {
		text := strings.TrimSpace(block.Text)
		if text == "" {
			continue
		}

		switch block.Type {
		case "header-one":
			paragraphs = append(paragraphs, "# "+text)
		case "header-two":
			paragraphs = append(paragraphs, "## "+text)
		case "header-three":
			paragraphs = append(paragraphs, "### "+text)
		case "blockquote":
			paragraphs = append(paragraphs, "> "+text)
		case "unordered-list-item":
			paragraphs = append(paragraphs, "- "+text)
		case "ordered-list-item":
			paragraphs = append(paragraphs, "1. "+text)
		default:
			paragraphs = append(paragraphs, text)
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

func appendMedia(lines []string, mediaURLs []string) []string {
	if len(mediaURLs) == 0 {
		return lines
	}

	lines = append(lines, "## Media", "")
	for i, m := range mediaURLs {
		lines = append(lines, fmt.Sprintf("![media %d](%s)", i+1, m))
	}
	return append(lines, "")
}

// PlaceholderSection is the markdown slot written before a post's content
// arrives; it is replaced in place when the fetch completes.
func PlaceholderSection(index int, url string) string {
	return fmt.Sprintf("\n### Post %d\n\n> Fetching content...\n\n- URL: %s\n\n---\n\n", index, url)
}

// UnavailableSection replaces a placeholder whose fetch produced no content
func UnavailableSection(index int, url string) string {
	return fmt.Sprintf("\n### Post %d\n\n> Content could not be retrieved\n\n- URL: %s\n\n---\n\n", index, url)
}

// Section wraps rendered post markdown for in-place placeholder replacement
func Section(markdown string) string {
	return markdown + "\n\n---\n\n"
}

// comma formats n with thousands separators
func comma(n int) string {
	s := strconv.Itoa(n)
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if negative {
		out = "-" + out
	}
	return out
}
