package feedengine

import (
	"net/url"
	"strings"
)

// ComposePath joins escaped path segments under the API prefix.
//
//	ComposePath("posts", "a/b", "like") == "/api/mobile/posts/a%2Fb/like"
func ComposePath(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return APIPrefix + "/" + strings.Join(escaped, "/")
}

// ComposeQuery appends a query string when values is not empty.
func ComposeQuery(path string, values url.Values) string {
	if len(values) == 0 {
		return path
	}
	return path + "?" + values.Encode()
}
